package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrerequisites(t *testing.T) {
	raw := []byte(`
network:
  chain_id: 1
  block: 17500000
  rpc: https://eth.example.org
wallet:
  initial_balance: "10.5"
`)
	p, err := ParsePrerequisites(raw)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), p.Network.ChainID)
	assert.Equal(t, uint64(17500000), p.Network.Block)
	assert.Equal(t, "https://eth.example.org", p.Network.RPC)
	assert.Equal(t, big.NewInt(1), p.ChainIDBig())

	wei, err := p.InitialBalanceWei()
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("10500000000000000000", 10)
	assert.Equal(t, expected, wei)
}

func TestPrerequisitesInitialBalance(t *testing.T) {
	tcs := []struct {
		name    string
		balance string
		wei     string
		wantErr bool
	}{
		{name: "unset", balance: ""},
		{name: "whole ether", balance: "2", wei: "2000000000000000000"},
		{name: "one wei", balance: "0.000000000000000001", wei: "1"},
		{name: "too precise", balance: "0.0000000000000000001", wantErr: true},
		{name: "negative", balance: "-1", wantErr: true},
		{name: "not a number", balance: "lots", wantErr: true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var p Prerequisites
			p.Wallet.InitialBalance = tc.balance

			wei, err := p.InitialBalanceWei()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.wei == "" {
				assert.Nil(t, wei)
				return
			}
			assert.Equal(t, tc.wei, wei.String())
		})
	}
}

func TestLoadPrerequisites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prerequisites.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  chain_id: 11155111\n"), 0o600))

	p, err := LoadPrerequisites(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), p.Network.ChainID)
	assert.Empty(t, p.Network.RPC)

	_, err = LoadPrerequisites(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParsePrerequisitesRejectsBadBalance(t *testing.T) {
	_, err := ParsePrerequisites([]byte("wallet:\n  initial_balance: \"-3\"\n"))
	require.Error(t, err)

	_, err = ParsePrerequisites([]byte("network: [1, 2"))
	require.Error(t, err)
}
