package main

import (
	"context"
	"fmt"
	"math/big"
)

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// resolveChainID reconciles the configured chain id, the one a story
// expects and the one the node reports. Any two that are set must agree.
func resolveChainID(ctx context.Context, node chainIDReader, configured, expected *big.Int) (*big.Int, error) {
	actual, err := node.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id from node: %w", err)
	}
	if configured != nil && configured.Cmp(actual) != 0 {
		return nil, fmt.Errorf("configured chain id %s does not match node chain id %s", configured, actual)
	}
	if expected != nil && expected.Cmp(actual) != 0 {
		return nil, fmt.Errorf("prerequisites expect chain id %s but node reports %s", expected, actual)
	}
	return actual, nil
}

type rpcCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

type forkingParams struct {
	JSONRPCURL  string `json:"jsonRpcUrl"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

// resetFork points an anvil node at the network a story was written for.
// It does nothing when the prerequisites name no rpc.
func resetFork(ctx context.Context, node rpcCaller, p *Prerequisites) error {
	if p == nil || p.Network.RPC == "" {
		return nil
	}
	params := map[string]forkingParams{
		"forking": {JSONRPCURL: p.Network.RPC, BlockNumber: p.Network.Block},
	}
	if err := node.CallContext(ctx, nil, "anvil_reset", params); err != nil {
		return fmt.Errorf("failed to fork %s at block %d: %w", p.Network.RPC, p.Network.Block, err)
	}
	return nil
}
