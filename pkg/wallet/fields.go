package wallet

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// fields reads typed values out of a loosely typed transaction request.
type fields map[string]any

func (f fields) has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

func (f fields) bigInt(key string) (*big.Int, error) {
	if !f.has(key) {
		return nil, nil
	}
	n, err := parseBig(f[key])
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", key)
	}
	return n, nil
}

func (f fields) uintField(key string) (uint64, bool, error) {
	n, err := f.bigInt(key)
	if err != nil || n == nil {
		return 0, false, err
	}
	if !n.IsUint64() {
		return 0, false, errors.Errorf("field %s: %s overflows uint64", key, n)
	}
	return n.Uint64(), true, nil
}

func (f fields) address(key string) (*common.Address, error) {
	if !f.has(key) {
		return nil, nil
	}
	s, ok := f[key].(string)
	if !ok || !common.IsHexAddress(s) {
		return nil, errors.Errorf("field %s: invalid address %v", key, f[key])
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

// data reads "data", falling back to "input".
func (f fields) data() ([]byte, error) {
	key := "data"
	if !f.has(key) {
		key = "input"
	}
	if !f.has(key) {
		return nil, nil
	}
	s, ok := f[key].(string)
	if !ok {
		return nil, errors.Errorf("field %s: expected hex string, got %T", key, f[key])
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", key)
	}
	return b, nil
}

func parseBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		f := new(big.Float).SetFloat64(n)
		if !f.IsInt() {
			return nil, errors.Errorf("%v is not an integer", n)
		}
		i, _ := f.Int(nil)
		return i, nil
	case json.Number:
		return parseBig(string(n))
	case string:
		s := strings.TrimSpace(n)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
			if s == "" {
				return new(big.Int), nil
			}
		}
		i, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, errors.Errorf("invalid quantity %q", n)
		}
		return i, nil
	}
	return nil, errors.Errorf("unsupported quantity type %T", v)
}
