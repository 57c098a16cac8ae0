package wallet

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBig(t *testing.T) {
	tests := []struct {
		in      any
		want    int64
		wantErr bool
	}{
		{in: "0x5208", want: 21000},
		{in: "0X10", want: 16},
		{in: "0x", want: 0},
		{in: "21000", want: 21000},
		{in: 7, want: 7},
		{in: int64(8), want: 8},
		{in: uint64(9), want: 9},
		{in: float64(10), want: 10},
		{in: json.Number("11"), want: 11},
		{in: big.NewInt(12), want: 12},
		{in: 1.5, wantErr: true},
		{in: "0xgg", wantErr: true},
		{in: true, wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseBig(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "%v", tc.in)
			continue
		}
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, got.Int64(), "%v", tc.in)
	}
}

func TestFields(t *testing.T) {
	f := fields{"to": "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "input": "0x01", "nonce": "0x2", "value": nil}

	to, err := f.address("to")
	require.NoError(t, err)
	require.NotNil(t, to)

	data, err := f.data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	nonce, ok, err := f.uintField("nonce")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), nonce)

	value, err := f.bigInt("value")
	require.NoError(t, err)
	assert.Nil(t, value)

	_, _, err = fields{"nonce": "-0x1"}.uintField("nonce")
	require.Error(t, err)
}
