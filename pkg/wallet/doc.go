// Package wallet connects a local key to a node. A Wallet performs the
// signer side of the provider bridge: read-only calls, gas estimation and
// transaction submission, each in a single attempt.
//
// Transaction requests arrive the way the bridge prepares them, with
// gasLimit instead of gas and integer type and chainId for fee-market
// transactions. Missing nonce, gas and fee values are filled from the node.
package wallet
