package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Provider methods the adapter treats specially.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodNetVersion      = "net_version"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodPersonalSign    = "personal_sign"
	MethodSign            = "eth_sign"
	MethodSignTypedDataV4 = "eth_signTypedData_v4"
	MethodCall            = "eth_call"
	MethodEstimateGas     = "eth_estimateGas"
	MethodSendTransaction = "eth_sendTransaction"
	MethodAnvilSetBalance = "anvil_setBalance"
)

// rule is one entry of the rewrite table. A rule either rewrites the request,
// after which the table is consulted again from the top, or handles it.
type rule struct {
	name    string
	match   func(a *Adapter, method string, params []any) bool
	rewrite func(method string, params []any) (string, []any, error)
	handle  func(ctx context.Context, a *Adapter, method string, params []any) (any, error)
}

// rewriteTable is consulted top to bottom before anything is forwarded; the
// first matching rule answers the request. Requests no rule matches go to
// the delegate unchanged.
var rewriteTable = []rule{
	{
		name:  "request accounts",
		match: methodIs(MethodRequestAccounts),
		rewrite: func(_ string, params []any) (string, []any, error) {
			return MethodAccounts, params, nil
		},
	},
	{
		name:  "accounts",
		match: methodIs(MethodAccounts),
		handle: func(_ context.Context, a *Adapter, _ string, _ []any) (any, error) {
			return []string{a.signer.Address().Hex()}, nil
		},
	},
	{
		name:  "chain id",
		match: methodIs(MethodChainID),
		handle: func(ctx context.Context, a *Adapter, _ string, _ []any) (any, error) {
			id, err := a.ChainID(ctx)
			if err != nil {
				return nil, err
			}
			return hexQuantity(id), nil
		},
	},
	{
		name:  "net version",
		match: methodIs(MethodNetVersion),
		handle: func(ctx context.Context, a *Adapter, _ string, _ []any) (any, error) {
			id, err := a.ChainID(ctx)
			if err != nil {
				return nil, err
			}
			return id.String(), nil
		},
	},
	{
		name:  "chain switching",
		match: methodIs(MethodSwitchChain, MethodAddChain),
		handle: func(context.Context, *Adapter, string, []any) (any, error) {
			return nil, nil
		},
	},
	{
		name:  "personal sign",
		match: methodIs(MethodPersonalSign),
		rewrite: func(_ string, params []any) (string, []any, error) {
			if len(params) < 2 {
				return "", nil, fmt.Errorf("%w: %s expects [message, address]", ErrInvalidParams, MethodPersonalSign)
			}
			swapped := append([]any{params[1], params[0]}, params[2:]...)
			return MethodSign, swapped, nil
		},
	},
	{
		name: "sign with own key",
		match: func(a *Adapter, method string, params []any) bool {
			return method == MethodSign && len(params) >= 2 && a.owns(params[0])
		},
		handle: func(ctx context.Context, a *Adapter, _ string, params []any) (any, error) {
			msg, err := messageBytes(params[1])
			if err != nil {
				return nil, err
			}
			return a.signer.SignMessage(ctx, msg)
		},
	},
	{
		name: "typed data with own key",
		match: func(a *Adapter, method string, params []any) bool {
			return method == MethodSignTypedDataV4 && len(params) >= 2 && a.owns(params[0])
		},
		handle: func(ctx context.Context, a *Adapter, _ string, params []any) (any, error) {
			data, err := typedData(params[1])
			if err != nil {
				return nil, err
			}
			return a.signer.SignTypedData(ctx, data)
		},
	},
	{
		name: "wallet transaction",
		match: func(_ *Adapter, method string, params []any) bool {
			_, ok := walletTransaction(method, params)
			return ok
		},
		handle: func(ctx context.Context, a *Adapter, method string, params []any) (any, error) {
			return a.transact(ctx, method, params)
		},
	},
}

func methodIs(methods ...string) func(*Adapter, string, []any) bool {
	return func(_ *Adapter, method string, _ []any) bool {
		for _, m := range methods {
			if m == method {
				return true
			}
		}
		return false
	}
}

// owns reports whether v is the signer's address in any letter case.
func (a *Adapter) owns(v any) bool {
	s, ok := v.(string)
	if !ok || !common.IsHexAddress(s) {
		return false
	}
	return common.HexToAddress(s) == a.signer.Address()
}

// messageBytes decodes a 0x-prefixed hex message; anything else is signed as
// its UTF-8 bytes.
func messageBytes(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: message is %T", ErrInvalidParams, v)
	}
	if !strings.HasPrefix(s, "0x") {
		return []byte(s), nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrInvalidParams, err)
	}
	return b, nil
}

// typedData accepts the JSON string dApps usually send as well as an already
// decoded object.
func typedData(v any) (apitypes.TypedData, error) {
	var raw []byte
	switch d := v.(type) {
	case string:
		raw = []byte(d)
	case json.RawMessage:
		raw = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return apitypes.TypedData{}, fmt.Errorf("%w: typed data: %v", ErrInvalidParams, err)
		}
		raw = b
	}

	var data apitypes.TypedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: typed data: %v", ErrInvalidParams, err)
	}
	return data, nil
}
