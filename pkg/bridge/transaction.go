package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Field names on the two sides of the transaction path.
const (
	FieldFrom     = "from"
	FieldGas      = "gas"
	FieldGasLimit = "gasLimit"
	FieldType     = "type"
	FieldChainID  = "chainId"
)

// DynamicFeeTxType is the EIP-1559 transaction type discriminator.
const DynamicFeeTxType = 2

// txMethods are the methods eligible for the transaction path.
var txMethods = map[string]struct{}{
	MethodCall:            {},
	MethodEstimateGas:     {},
	MethodSendTransaction: {},
}

// walletTransaction returns params[0] when method belongs to the transaction
// family and params[0] carries a from field. Any other shape is left to the
// delegate.
func walletTransaction(method string, params []any) (TransactionRequest, bool) {
	if _, ok := txMethods[method]; !ok || len(params) == 0 {
		return nil, false
	}
	var tx map[string]any
	switch v := params[0].(type) {
	case map[string]any:
		tx = v
	case TransactionRequest:
		tx = v
	default:
		return nil, false
	}
	if _, ok := tx[FieldFrom]; !ok {
		return nil, false
	}
	return tx, true
}

// PrepareTransaction turns a dApp transaction into what the signer accepts.
// The input is not modified. The steps run in order:
//
//  1. from is removed, the signer uses its own address
//  2. gas is renamed to gasLimit, value untouched; when both are set gas
//     wins, a null gas leaves gasLimit alone
//  3. a fee-market transaction gets integer type and chainId; a missing
//     chainId is taken from chainID. A null type counts as missing.
func PrepareTransaction(tx TransactionRequest, chainID *big.Int) (TransactionRequest, error) {
	out := tx.Clone()
	delete(out, FieldFrom)

	if gas, ok := out[FieldGas]; ok {
		delete(out, FieldGas)
		if _, set := out[FieldGasLimit]; gas != nil || !set {
			out[FieldGasLimit] = gas
		}
	}

	raw, ok := out[FieldType]
	if !ok || raw == nil {
		return out, nil
	}
	txType, err := toInt64(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type %v: %w", raw, err)
	}
	if txType != DynamicFeeTxType {
		return out, nil
	}
	out[FieldType] = int(txType)

	if raw, ok := out[FieldChainID]; ok && raw != nil {
		id, err := toInt64(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid chainId %v: %w", raw, err)
		}
		out[FieldChainID] = int(id)
	} else if chainID != nil {
		out[FieldChainID] = int(chainID.Int64())
	}
	return out, nil
}

// PseudoHash derives the hash answered for an observed transaction. Keys are
// sorted by encoding/json, so equal transactions give equal hashes.
func PseudoHash(tx TransactionRequest) (common.Hash, error) {
	canonical, err := json.Marshal(tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("could not encode transaction: %w", err)
	}
	return crypto.Keccak256Hash(canonical), nil
}

// toInt64 reads the numeric encodings a provider request can carry: JSON
// numbers, Go integers, hex quantities and decimal strings.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("out of range: %d", n)
		}
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case *big.Int:
		if n == nil || !n.IsInt64() {
			return 0, fmt.Errorf("out of range: %v", n)
		}
		return n.Int64(), nil
	case string:
		s := strings.TrimSpace(n)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			// hexutil rejects leading zeros such as "0x02"; big.Int does not.
			b, ok := new(big.Int).SetString(s[2:], 16)
			if !ok || !b.IsInt64() {
				return 0, fmt.Errorf("invalid hex quantity %q", s)
			}
			return b.Int64(), nil
		}
		b, ok := new(big.Int).SetString(s, 10)
		if !ok || !b.IsInt64() {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		return b.Int64(), nil
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}

// hexQuantity renders a chain id the way eth_chainId answers it.
func hexQuantity(n *big.Int) string {
	return hexutil.EncodeBig(n)
}
