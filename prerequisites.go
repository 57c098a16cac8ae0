package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Prerequisites describe the chain a story expects to run against.
//
//	network:
//	  chain_id: 1
//	  block: 17500000
//	  rpc: https://eth.llamarpc.com
//	wallet:
//	  initial_balance: "10.5"
type Prerequisites struct {
	Network struct {
		ChainID uint64 `yaml:"chain_id"`
		Block   uint64 `yaml:"block"`
		RPC     string `yaml:"rpc"`
	} `yaml:"network"`
	Wallet struct {
		// InitialBalance is in ETH.
		InitialBalance string `yaml:"initial_balance"`
	} `yaml:"wallet"`
}

var weiPerEther = decimal.New(1, 18)

func LoadPrerequisites(path string) (*Prerequisites, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prerequisites: %w", err)
	}
	return ParsePrerequisites(raw)
}

func ParsePrerequisites(raw []byte) (*Prerequisites, error) {
	var p Prerequisites
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prerequisites: %w", err)
	}
	if _, err := p.InitialBalanceWei(); err != nil {
		return nil, err
	}
	return &p, nil
}

// InitialBalanceWei converts the wallet balance to wei. It returns nil when
// no balance is requested.
func (p *Prerequisites) InitialBalanceWei() (*big.Int, error) {
	if p.Wallet.InitialBalance == "" {
		return nil, nil
	}
	eth, err := decimal.NewFromString(p.Wallet.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance %q: %w", p.Wallet.InitialBalance, err)
	}
	if eth.IsNegative() {
		return nil, errors.New("initial balance must not be negative")
	}
	wei := eth.Mul(weiPerEther)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("initial balance %q has more than 18 decimals", p.Wallet.InitialBalance)
	}
	return wei.BigInt(), nil
}

// ChainIDBig returns the expected chain id, or nil when the story does not
// name one.
func (p *Prerequisites) ChainIDBig() *big.Int {
	if p.Network.ChainID == 0 {
		return nil
	}
	return new(big.Int).SetUint64(p.Network.ChainID)
}
