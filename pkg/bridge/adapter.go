package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

const (
	defaultConnectDelay   = 100 * time.Millisecond
	defaultConnectTimeout = 5 * time.Second
)

// Config configures an Adapter.
type Config struct {
	// ChainID answers eth_chainId locally. When nil the first answer of the
	// delegate is kept for the lifetime of the adapter.
	ChainID *big.Int
	// Mode defaults to ModeObserve.
	Mode Mode
	// ConnectDelay is how long after construction "connect" is emitted.
	// Zero means 100ms, a negative value disables the event.
	ConnectDelay time.Duration
	Logger       log.Logger
}

// Adapter is the injected wallet provider. It is safe for concurrent use;
// concurrent requests are not serialized against each other.
type Adapter struct {
	*EventNotifier

	delegate Delegate
	signer   Signer
	mode     Mode
	logger   log.Logger

	chainMu sync.Mutex
	chainID *big.Int

	obsMu     sync.Mutex
	observers []*observer

	connectTimer *time.Timer
}

type observer struct {
	fn func(TxObservation)
}

// NewAdapter binds signer to the adapter for its whole lifetime. delegate may
// be nil, in which case every forwarded request fails with ErrNoDelegate.
func NewAdapter(delegate Delegate, signer Signer, conf Config) (*Adapter, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}

	mode := conf.Mode
	switch mode {
	case "":
		mode = ModeObserve
	case ModeObserve, ModeLive:
	default:
		return nil, fmt.Errorf("unknown submission mode %q", mode)
	}

	logger := conf.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	a := &Adapter{
		EventNotifier: NewEventNotifier(),
		delegate:      delegate,
		signer:        signer,
		mode:          mode,
		logger:        logger.Named("bridge").With("address", signer.Address().Hex()),
	}
	if conf.ChainID != nil {
		a.chainID = new(big.Int).Set(conf.ChainID)
	}

	delay := conf.ConnectDelay
	if delay == 0 {
		delay = defaultConnectDelay
	}
	if delay > 0 {
		a.connectTimer = time.AfterFunc(delay, a.announceConnect)
	}
	return a, nil
}

// Close cancels a connect event that has not fired yet.
func (a *Adapter) Close() {
	if a.connectTimer != nil {
		a.connectTimer.Stop()
	}
}

func (a *Adapter) announceConnect() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	id, err := a.ChainID(ctx)
	if err != nil {
		a.logger.Warn("connect event skipped, chain id unavailable", "err", err)
		return
	}
	a.Emit(EventConnect, ConnectInfo{ChainID: hexQuantity(id)})
}

func (a *Adapter) Address() common.Address { return a.signer.Address() }
func (a *Adapter) Mode() Mode              { return a.mode }

// IsMetaMask is true: dApps commonly refuse to talk to anything else.
func (a *Adapter) IsMetaMask() bool { return true }
func (a *Adapter) IsUnlocked() bool { return true }

// ChainID returns the configured chain id, or asks the delegate once and
// keeps the answer.
func (a *Adapter) ChainID(ctx context.Context) (*big.Int, error) {
	a.chainMu.Lock()
	id := a.chainID
	a.chainMu.Unlock()
	if id != nil {
		return new(big.Int).Set(id), nil
	}

	if a.delegate == nil {
		return nil, ErrNoDelegate
	}
	var answer hexutil.Big
	if err := a.delegate.CallContext(ctx, &answer, MethodChainID); err != nil {
		return nil, err
	}

	a.chainMu.Lock()
	defer a.chainMu.Unlock()
	if a.chainID == nil {
		a.chainID = answer.ToInt()
	}
	return new(big.Int).Set(a.chainID), nil
}

// Request is the EIP-1193 entry point.
func (a *Adapter) Request(ctx context.Context, method string, params []any) (any, error) {
	res := a.resolve(ctx, method, params)
	return res.Value, res.Err
}

// Send accepts both calling conventions. In the callback form the callback is
// invoked exactly once and Send returns (nil, nil); in the positional form the
// outcome is returned.
func (a *Adapter) Send(ctx context.Context, args ...any) (any, error) {
	call, err := Detect(args...)
	if err != nil {
		return nil, err
	}
	res := a.resolve(ctx, call.Method, call.Params)
	if call.Convention == ConventionCallback {
		deliver(call.Callback, res)
		return nil, nil
	}
	return res.Value, res.Err
}

// SendAsync is the legacy callback-only entry point. The request is resolved
// even when cb is nil; the result is then discarded.
func (a *Adapter) SendAsync(ctx context.Context, req Request, cb Callback) {
	res := a.resolve(ctx, req.Method, req.Params)
	if cb == nil {
		return
	}
	deliver(cb, res)
}

func deliver(cb Callback, res Result) {
	if res.Err != nil {
		cb(res.Err, nil)
		return
	}
	cb(nil, &Response{Result: res.Value})
}

func (a *Adapter) resolve(ctx context.Context, method string, params []any) Result {
	v, err := a.dispatch(ctx, method, params)
	if err != nil {
		a.logger.Debug("request failed", "method", method, "err", err)
		return Result{Err: err}
	}
	a.logger.Debug("request served", "method", method)
	return Result{Value: v}
}

func (a *Adapter) dispatch(ctx context.Context, method string, params []any) (any, error) {
	for i := 0; i < len(rewriteTable); i++ {
		r := rewriteTable[i]
		if !r.match(a, method, params) {
			continue
		}
		if r.rewrite == nil {
			return r.handle(ctx, a, method, params)
		}

		var err error
		if method, params, err = r.rewrite(method, params); err != nil {
			return nil, err
		}
		i = -1
	}
	return a.forward(ctx, method, params)
}

// forward hands the request to the delegate untouched. Delegate errors are
// returned as they are so node error codes survive.
func (a *Adapter) forward(ctx context.Context, method string, params []any) (any, error) {
	if a.delegate == nil {
		return nil, ErrNoDelegate
	}
	var out json.RawMessage
	if err := a.delegate.CallContext(ctx, &out, method, params...); err != nil {
		return nil, err
	}
	return out, nil
}

// transact runs the transaction path for a request walletTransaction accepted.
func (a *Adapter) transact(ctx context.Context, method string, params []any) (any, error) {
	tx, _ := walletTransaction(method, params)

	prepared, err := a.prepare(ctx, tx)
	if err != nil {
		if method == MethodSendTransaction {
			a.notify(TxObservation{Method: method, Params: params, Err: err})
		}
		return nil, err
	}

	switch method {
	case MethodCall:
		return a.signer.Call(ctx, prepared, callBlockTag(params))
	case MethodEstimateGas:
		return a.signer.EstimateGas(ctx, prepared)
	default:
		hash, err := a.submit(ctx, prepared)
		obs := TxObservation{Method: method, Params: params, Prepared: prepared, Err: err}
		if err == nil {
			obs.Result = hash
		}
		a.notify(obs)
		if err != nil {
			return nil, err
		}
		return hash, nil
	}
}

func (a *Adapter) prepare(ctx context.Context, tx TransactionRequest) (TransactionRequest, error) {
	var chainID *big.Int
	if needsChainID(tx) {
		id, err := a.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		chainID = id
	}
	return PrepareTransaction(tx, chainID)
}

// needsChainID reports whether PrepareTransaction will fill in chainId.
func needsChainID(tx TransactionRequest) bool {
	if v, ok := tx[FieldChainID]; ok && v != nil {
		return false
	}
	t, ok := tx[FieldType]
	if !ok {
		return false
	}
	n, err := toInt64(t)
	return err == nil && n == DynamicFeeTxType
}

func (a *Adapter) submit(ctx context.Context, tx TransactionRequest) (common.Hash, error) {
	if a.mode == ModeLive {
		return a.signer.SendTransaction(ctx, tx)
	}
	return PseudoHash(tx)
}

// Prefund sets the signer's balance on an anvil or hardhat style node.
func (a *Adapter) Prefund(ctx context.Context, wei *big.Int) error {
	_, err := a.forward(ctx, MethodAnvilSetBalance, []any{a.signer.Address().Hex(), hexutil.EncodeBig(wei)})
	return err
}

// callBlockTag reads the block argument of eth_call. An EIP-1898 object is
// reduced to its blockNumber; a blockHash object falls back to latest.
func callBlockTag(params []any) string {
	if len(params) < 2 {
		return ""
	}
	switch b := params[1].(type) {
	case string:
		return b
	case map[string]any:
		tag, _ := b["blockNumber"].(string)
		return tag
	}
	return ""
}
