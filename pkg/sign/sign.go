package sign

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Signer signs on behalf of a single address.
type Signer interface {
	Address() common.Address
	PublicKey() *ecdsa.PublicKey
	// Sign signs a 32 byte digest.
	Sign(hash []byte) (Signature, error)
	SignMessage(msg []byte) (Signature, error)
	SignTypedData(data apitypes.TypedData) (Signature, error)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Signature is a 65 byte [R || S || V] signature, hex encoded in JSON.
type Signature []byte

func (s Signature) String() string { return hexutil.Encode(s) }

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var raw hexutil.Bytes
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Signature(raw)
	return nil
}

var _ Signer = (*EthereumSigner)(nil)

// EthereumSigner signs with an in-memory ECDSA key.
type EthereumSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewEthereumSigner parses a hex private key, with or without 0x prefix.
func NewEthereumSigner(privateKeyHex string) (*EthereumSigner, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	return newEthereumSigner(key), nil
}

// NewRandomEthereumSigner generates a fresh key. Used for burn wallets that
// only live as long as one page session.
func NewRandomEthereumSigner() (*EthereumSigner, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate private key: %w", err)
	}
	return newEthereumSigner(key), nil
}

func newEthereumSigner(key *ecdsa.PrivateKey) *EthereumSigner {
	return &EthereumSigner{key: key, address: ethcrypto.PubkeyToAddress(key.PublicKey)}
}

func (s *EthereumSigner) Address() common.Address     { return s.address }
func (s *EthereumSigner) PublicKey() *ecdsa.PublicKey { return &s.key.PublicKey }

// PrivateKeyHex returns the key without 0x prefix, for handing a burn wallet
// key to a second signer instance.
func (s *EthereumSigner) PrivateKeyHex() string {
	return hexutil.Encode(ethcrypto.FromECDSA(s.key))[2:]
}

func (s *EthereumSigner) Sign(hash []byte) (Signature, error) {
	sig, err := ethcrypto.Sign(hash, s.key)
	if err != nil {
		return nil, err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return Signature(sig), nil
}

func (s *EthereumSigner) SignMessage(msg []byte) (Signature, error) {
	return s.Sign(accounts.TextHash(msg))
}

func (s *EthereumSigner) SignTypedData(data apitypes.TypedData) (Signature, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("could not hash typed data: %w", err)
	}
	return s.Sign(hash)
}

func (s *EthereumSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// RecoverAddressFromHash returns the address that produced sig over hash.
// Both V conventions (0/1 and 27/28) are accepted.
func RecoverAddressFromHash(hash []byte, sig Signature) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

// RecoverMessageSigner recovers the signer of an EIP-191 personal message.
func RecoverMessageSigner(msg []byte, sig Signature) (common.Address, error) {
	return RecoverAddressFromHash(accounts.TextHash(msg), sig)
}

// RecoverTypedDataSigner recovers the signer of EIP-712 typed data.
func RecoverTypedDataSigner(data apitypes.TypedData, sig Signature) (common.Address, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not hash typed data: %w", err)
	}
	return RecoverAddressFromHash(hash, sig)
}
