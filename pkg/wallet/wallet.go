package wallet

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/sign"
)

// Backend is the node access a Wallet needs. *ethclient.Client and the
// simulated backend's client both satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

var _ bridge.Signer = (*Wallet)(nil)

// Wallet signs with one key and talks to one node.
type Wallet struct {
	signer  sign.Signer
	backend Backend

	mu      sync.Mutex
	chainID *big.Int
}

func New(signer sign.Signer, backend Backend) *Wallet {
	return &Wallet{signer: signer, backend: backend}
}

func (w *Wallet) Address() common.Address { return w.signer.Address() }

// ChainID asks the node once and remembers the answer.
func (w *Wallet) ChainID(ctx context.Context) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chainID == nil {
		id, err := w.backend.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		w.chainID = id
	}
	return new(big.Int).Set(w.chainID), nil
}

func (w *Wallet) Call(ctx context.Context, tx bridge.TransactionRequest, blockTag string) (hexutil.Bytes, error) {
	msg, err := w.callMsg(tx)
	if err != nil {
		return nil, err
	}
	block, err := blockNumber(blockTag)
	if err != nil {
		return nil, err
	}
	return w.backend.CallContract(ctx, msg, block)
}

func (w *Wallet) EstimateGas(ctx context.Context, tx bridge.TransactionRequest) (hexutil.Uint64, error) {
	msg, err := w.callMsg(tx)
	if err != nil {
		return 0, err
	}
	gas, err := w.backend.EstimateGas(ctx, msg)
	return hexutil.Uint64(gas), err
}

// SendTransaction fills in what the request leaves out, signs and submits.
func (w *Wallet) SendTransaction(ctx context.Context, req bridge.TransactionRequest) (common.Hash, error) {
	tx, err := w.PopulateTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}
	chainID := tx.ChainId()
	if tx.Type() == types.LegacyTxType {
		if chainID, err = w.ChainID(ctx); err != nil {
			return common.Hash{}, err
		}
	}
	signed, err := w.signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "sign transaction")
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}

// PopulateTransaction builds an unsigned transaction from req. A request with
// type 2, or with fee-market fields, or without gasPrice against a node that
// reports a base fee, becomes a dynamic fee transaction.
func (w *Wallet) PopulateTransaction(ctx context.Context, req bridge.TransactionRequest) (*types.Transaction, error) {
	f := fields(req)

	to, err := f.address("to")
	if err != nil {
		return nil, err
	}
	data, err := f.data()
	if err != nil {
		return nil, err
	}
	value, err := f.bigInt("value")
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = new(big.Int)
	}

	nonce, ok, err := f.uintField("nonce")
	if err != nil {
		return nil, err
	}
	if !ok {
		if nonce, err = w.backend.PendingNonceAt(ctx, w.Address()); err != nil {
			return nil, errors.Wrap(err, "fetch nonce")
		}
	}

	gasPrice, err := f.bigInt("gasPrice")
	if err != nil {
		return nil, err
	}
	tipCap, err := f.bigInt("maxPriorityFeePerGas")
	if err != nil {
		return nil, err
	}
	feeCap, err := f.bigInt("maxFeePerGas")
	if err != nil {
		return nil, err
	}
	txType, _, err := f.uintField("type")
	if err != nil {
		return nil, err
	}

	dynamic := txType == types.DynamicFeeTxType || tipCap != nil || feeCap != nil
	var baseFee *big.Int
	if gasPrice == nil || dynamic {
		head, err := w.backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, errors.Wrap(err, "fetch latest header")
		}
		baseFee = head.BaseFee
		if gasPrice == nil && baseFee != nil {
			dynamic = true
		}
	}

	gas, ok, err := f.uintField("gasLimit")
	if err != nil {
		return nil, err
	}
	if !ok {
		msg := ethereum.CallMsg{From: w.Address(), To: to, Value: value, Data: data}
		if gas, err = w.backend.EstimateGas(ctx, msg); err != nil {
			return nil, errors.Wrap(err, "estimate gas")
		}
	}

	if !dynamic {
		if gasPrice == nil {
			if gasPrice, err = w.backend.SuggestGasPrice(ctx); err != nil {
				return nil, errors.Wrap(err, "suggest gas price")
			}
		}
		return types.NewTx(&types.LegacyTx{
			Nonce: nonce, GasPrice: gasPrice, Gas: gas, To: to, Value: value, Data: data,
		}), nil
	}

	chainID, err := f.bigInt("chainId")
	if err != nil {
		return nil, err
	}
	if chainID == nil {
		if chainID, err = w.ChainID(ctx); err != nil {
			return nil, err
		}
	}
	if tipCap == nil {
		if tipCap, err = w.backend.SuggestGasTipCap(ctx); err != nil {
			return nil, errors.Wrap(err, "suggest tip cap")
		}
	}
	if feeCap == nil {
		feeCap = new(big.Int).Set(tipCap)
		if baseFee != nil {
			feeCap.Add(feeCap, new(big.Int).Mul(baseFee, big.NewInt(2)))
		}
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID: chainID, Nonce: nonce, GasTipCap: tipCap, GasFeeCap: feeCap,
		Gas: gas, To: to, Value: value, Data: data,
	}), nil
}

func (w *Wallet) SignMessage(_ context.Context, msg []byte) (hexutil.Bytes, error) {
	sig, err := w.signer.SignMessage(msg)
	return hexutil.Bytes(sig), err
}

func (w *Wallet) SignTypedData(_ context.Context, data apitypes.TypedData) (hexutil.Bytes, error) {
	sig, err := w.signer.SignTypedData(data)
	return hexutil.Bytes(sig), err
}

func (w *Wallet) callMsg(req bridge.TransactionRequest) (ethereum.CallMsg, error) {
	f := fields(req)
	msg := ethereum.CallMsg{From: w.Address()}

	var err error
	if msg.To, err = f.address("to"); err != nil {
		return msg, err
	}
	if msg.Data, err = f.data(); err != nil {
		return msg, err
	}
	if msg.Value, err = f.bigInt("value"); err != nil {
		return msg, err
	}
	if msg.Gas, _, err = f.uintField("gasLimit"); err != nil {
		return msg, err
	}
	if msg.GasPrice, err = f.bigInt("gasPrice"); err != nil {
		return msg, err
	}
	if msg.GasFeeCap, err = f.bigInt("maxFeePerGas"); err != nil {
		return msg, err
	}
	if msg.GasTipCap, err = f.bigInt("maxPriorityFeePerGas"); err != nil {
		return msg, err
	}
	return msg, nil
}

// blockNumber maps a block tag to what CallContract takes. "earliest" is
// block zero. latest, pending, safe, finalized and an empty tag all mean the
// latest block; CallContract has no way to name the others.
func blockNumber(tag string) (*big.Int, error) {
	if tag == "earliest" {
		return big.NewInt(0), nil
	}
	if !strings.HasPrefix(tag, "0x") {
		return nil, nil
	}
	n, err := hexutil.DecodeBig(tag)
	if err != nil {
		return nil, errors.Wrapf(err, "block tag %q", tag)
	}
	return n, nil
}
