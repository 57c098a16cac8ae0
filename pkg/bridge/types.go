package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Request is a wallet-protocol request in its single-object form.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// Response is what a callback-convention caller receives on success.
type Response struct {
	Result any `json:"result"`
}

// Callback receives exactly one of err or res.
type Callback func(err error, res *Response)

// TransactionRequest holds transaction fields the way a dApp sends them.
type TransactionRequest map[string]any

// Clone returns a shallow copy; nested values are shared.
func (tx TransactionRequest) Clone() TransactionRequest {
	out := make(TransactionRequest, len(tx))
	for k, v := range tx {
		out[k] = v
	}
	return out
}

// Delegate is the backing JSON-RPC client. *rpc.Client from go-ethereum
// satisfies it.
type Delegate interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Signer is the key-holding collaborator transactions and signatures go to.
type Signer interface {
	Address() common.Address
	// Call performs a read-only call. blockTag may be empty.
	Call(ctx context.Context, tx TransactionRequest, blockTag string) (hexutil.Bytes, error)
	EstimateGas(ctx context.Context, tx TransactionRequest) (hexutil.Uint64, error)
	SendTransaction(ctx context.Context, tx TransactionRequest) (common.Hash, error)
	SignMessage(ctx context.Context, msg []byte) (hexutil.Bytes, error)
	SignTypedData(ctx context.Context, data apitypes.TypedData) (hexutil.Bytes, error)
}

// Mode selects what eth_sendTransaction does with a prepared transaction.
type Mode string

const (
	// ModeObserve records the transaction and answers with a pseudo hash.
	ModeObserve Mode = "observe"
	// ModeLive submits through the Signer.
	ModeLive Mode = "live"
)

// Result is the convention-independent outcome of one request.
type Result struct {
	Value any
	Err   error
}

// TxObservation describes one eth_sendTransaction attempt.
type TxObservation struct {
	Method   string             `json:"method"`
	Params   []any              `json:"params"`
	Prepared TransactionRequest `json:"prepared"`
	Result   any                `json:"result,omitempty"`
	Err      error              `json:"-"`
	Mode     Mode               `json:"mode"`
	At       time.Time          `json:"at"`
}

// ConnectInfo is the payload of the "connect" event.
type ConnectInfo struct {
	ChainID string `json:"chainId"`
}

var _ json.Marshaler = TxObservation{}

// MarshalJSON renders Err as a string, the form verifiers read back.
func (o TxObservation) MarshalJSON() ([]byte, error) {
	type alias TxObservation
	var errText *string
	if o.Err != nil {
		s := o.Err.Error()
		errText = &s
	}
	return json.Marshal(struct {
		alias
		Error *string `json:"error,omitempty"`
	}{alias(o), errText})
}
