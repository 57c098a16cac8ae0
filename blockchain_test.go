package main

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedChain struct {
	id  *big.Int
	err error
}

func (c fixedChain) ChainID(context.Context) (*big.Int, error) { return c.id, c.err }

type recordingCaller struct {
	method string
	args   []any
	err    error
}

func (c *recordingCaller) CallContext(_ context.Context, _ any, method string, args ...any) error {
	c.method, c.args = method, args
	return c.err
}

func TestResolveChainID(t *testing.T) {
	ctx := context.Background()
	node := fixedChain{id: big.NewInt(1)}

	id, err := resolveChainID(ctx, node, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	id, err = resolveChainID(ctx, node, big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	_, err = resolveChainID(ctx, node, big.NewInt(5), nil)
	require.ErrorContains(t, err, "configured chain id 5")

	_, err = resolveChainID(ctx, node, nil, big.NewInt(137))
	require.ErrorContains(t, err, "prerequisites expect chain id 137")

	_, err = resolveChainID(ctx, fixedChain{err: errors.New("dial tcp: refused")}, nil, nil)
	require.ErrorContains(t, err, "refused")
}

func TestResetFork(t *testing.T) {
	ctx := context.Background()

	t.Run("no rpc is a no-op", func(t *testing.T) {
		node := &recordingCaller{}
		require.NoError(t, resetFork(ctx, node, nil))
		require.NoError(t, resetFork(ctx, node, &Prerequisites{}))
		assert.Empty(t, node.method)
	})

	t.Run("forks at the story block", func(t *testing.T) {
		var p Prerequisites
		p.Network.RPC = "https://eth.example.org"
		p.Network.Block = 17500000

		node := &recordingCaller{}
		require.NoError(t, resetFork(ctx, node, &p))
		assert.Equal(t, "anvil_reset", node.method)
		require.Len(t, node.args, 1)
		assert.Equal(t, map[string]forkingParams{
			"forking": {JSONRPCURL: "https://eth.example.org", BlockNumber: 17500000},
		}, node.args[0])
	})

	t.Run("node failure", func(t *testing.T) {
		var p Prerequisites
		p.Network.RPC = "https://eth.example.org"

		err := resetFork(ctx, &recordingCaller{err: errors.New("method not found")}, &p)
		require.ErrorContains(t, err, "method not found")
	})
}
