package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

type delegateCall struct {
	method string
	args   []any
}

// mockDelegate answers from a method table and records every call.
type mockDelegate struct {
	mu      sync.Mutex
	calls   []delegateCall
	answers map[string]any
	errs    map[string]error
}

func newMockDelegate() *mockDelegate {
	return &mockDelegate{answers: map[string]any{}, errs: map[string]error{}}
}

func (d *mockDelegate) CallContext(_ context.Context, result any, method string, args ...any) error {
	d.mu.Lock()
	d.calls = append(d.calls, delegateCall{method: method, args: args})
	answer, err := d.answers[method], d.errs[method]
	d.mu.Unlock()

	if err != nil {
		return err
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func (d *mockDelegate) callsTo(method string) []delegateCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []delegateCall
	for _, c := range d.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (d *mockDelegate) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// rpcError mimics the error values go-ethereum's rpc client returns.
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string  { return e.msg }
func (e *rpcError) ErrorCode() int { return e.code }

// mockSigner records what reaches it and answers with fixed values.
type mockSigner struct {
	mu       sync.Mutex
	address  common.Address
	sent     []TransactionRequest
	called   []TransactionRequest
	blockTag string
	messages [][]byte
	typed    []apitypes.TypedData

	sendHash  common.Hash
	sendErr   error
	callOut   hexutil.Bytes
	callErr   error
	gasOut    hexutil.Uint64
	signature hexutil.Bytes
}

func newMockSigner() *mockSigner {
	return &mockSigner{
		address:   common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		sendHash:  common.HexToHash("0x01"),
		callOut:   hexutil.Bytes{0xca, 0xfe},
		gasOut:    21000,
		signature: hexutil.Bytes{0x5e, 0x1f},
	}
}

func (s *mockSigner) Address() common.Address { return s.address }

func (s *mockSigner) Call(_ context.Context, tx TransactionRequest, blockTag string) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called = append(s.called, tx)
	s.blockTag = blockTag
	return s.callOut, s.callErr
}

func (s *mockSigner) EstimateGas(_ context.Context, tx TransactionRequest) (hexutil.Uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called = append(s.called, tx)
	return s.gasOut, nil
}

func (s *mockSigner) SendTransaction(_ context.Context, tx TransactionRequest) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, tx)
	return s.sendHash, s.sendErr
}

func (s *mockSigner) SignMessage(_ context.Context, msg []byte) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.signature, nil
}

func (s *mockSigner) SignTypedData(_ context.Context, data apitypes.TypedData) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typed = append(s.typed, data)
	return s.signature, nil
}
