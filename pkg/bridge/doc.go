// Package bridge implements the wallet provider a dApp talks to during an
// automated end-to-end run.
//
// An Adapter stands in for an injected browser wallet. It accepts requests in
// both provider calling conventions, the positional form
//
//	res, err := adapter.Send(ctx, "eth_accounts", []any{})
//
// and the legacy object-plus-callback form
//
//	adapter.Send(ctx, bridge.Request{Method: "eth_accounts"}, func(err error, res *bridge.Response) { ... })
//
// and computes a single Result per request before shaping it back into the
// convention the caller used.
//
// Before anything reaches the backing node the request runs through a fixed,
// ordered rewrite table: account and chain queries are answered locally,
// chain switching is absorbed, personal_sign is turned into eth_sign with its
// parameters swapped, and transaction-shaped requests carrying a "from" field
// are prepared for the local Signer (from removed, gas renamed to gasLimit,
// fee-market type and chainId made native integers). Everything else is
// forwarded verbatim to the Delegate and its result or error is returned
// unchanged.
//
// By default eth_sendTransaction is only observed: the prepared transaction is
// reported to observers and a deterministic pseudo hash is returned without
// broadcasting. ModeLive submits through the Signer instead.
//
// Install binds an Adapter into a page context under the "ethereum" name,
// keeping whatever provider is already there.
package bridge
