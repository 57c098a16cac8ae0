// Package rpc carries provider requests between a browser page and its
// wallet session over a WebSocket.
//
// The page side is provider.js (served by ShimHandler). It installs
// window.ethereum when no provider exists yet and turns every request into a
// JSON-RPC 2.0 call on the socket. The server side is WebsocketNode: for each
// accepted socket it asks OnConnect for a Handler, serves requests
// concurrently and writes one response per request. Wallet events travel the
// other way as JSON-RPC notifications whose method is the event name:
//
//	{"jsonrpc":"2.0","method":"connect","params":[{"chainId":"0x7a69"}]}
//
// Errors keep the code of the node that produced them when they expose one
// (ErrorCode() int, as go-ethereum's rpc errors do); anything else is reported
// as an internal error.
package rpc
