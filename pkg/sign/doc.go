// Package sign holds the single secp256k1 key a mock wallet session signs with.
//
// A Signer owns exactly one private key for its whole lifetime. It produces
// the three kinds of signatures a dApp can ask an injected wallet for:
//
//   - SignMessage: EIP-191 personal messages ("\x19Ethereum Signed Message:\n" prefix)
//   - SignTypedData: EIP-712 typed data (eth_signTypedData_v4)
//   - SignTx: transactions, using the latest signer for the given chain id
//
// Message signatures use V in {27, 28}, the convention wallets return to dApps.
// Use NewEthereumSigner for a configured key and NewRandomEthereumSigner for a
// throwaway burn wallet:
//
//	signer, err := sign.NewEthereumSigner(os.Getenv("MOCKWALLET_PRIVATE_KEY"))
//	sig, err := signer.SignMessage([]byte("hello"))
//	addr, err := sign.RecoverMessageSigner([]byte("hello"), sig)
package sign
