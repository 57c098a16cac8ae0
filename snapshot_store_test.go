package main

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
)

const testSigner = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func observed(to string, result any, err error) bridge.TxObservation {
	tx := map[string]any{"from": testSigner, "to": to, "value": "0x1"}
	obs := bridge.TxObservation{
		Method: bridge.MethodSendTransaction,
		Params: []any{tx},
		Result: result,
		Err:    err,
		Mode:   bridge.ModeObserve,
		At:     time.Now(),
	}
	if err == nil {
		obs.Prepared = bridge.TransactionRequest{"to": to, "value": "0x1"}
	}
	return obs
}

func TestSnapshotStoreRecord(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	hash := common.HexToHash("0x01")
	row, err := store.Record("page-1", testSigner, observed("0xaa", hash, nil))
	require.NoError(t, err)
	assert.NotZero(t, row.ID)
	assert.False(t, row.Failed())

	var params []map[string]any
	require.NoError(t, json.Unmarshal(row.Params, &params))
	require.Len(t, params, 1)
	assert.Equal(t, testSigner, params[0]["from"])

	var result string
	require.NoError(t, json.Unmarshal(row.Result, &result))
	assert.Equal(t, hash.Hex(), result)

	var prepared map[string]any
	require.NoError(t, json.Unmarshal(row.Prepared, &prepared))
	assert.NotContains(t, prepared, "from")
}

func TestSnapshotStoreRecordFailure(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	row, err := store.Record("page-1", testSigner, observed("0xaa", nil, errors.New("insufficient funds")))
	require.NoError(t, err)
	assert.True(t, row.Failed())
	assert.Equal(t, "insufficient funds", row.Error)
	assert.Empty(t, row.Result)
}

func TestSnapshotStoreRequiresSession(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	_, err := store.Record("", testSigner, observed("0xaa", nil, nil))
	require.Error(t, err)
}

func TestSnapshotStoreList(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	for _, rec := range []struct{ session, to string }{
		{"page-1", "0x01"},
		{"page-2", "0x02"},
		{"page-1", "0x03"},
	} {
		_, err := store.Record(rec.session, testSigner, observed(rec.to, common.Hash{}, nil))
		require.NoError(t, err)
	}

	rows, err := store.List("page-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].ID, rows[1].ID)
	assert.Contains(t, string(rows[0].Params), "0x01")
	assert.Contains(t, string(rows[1].Params), "0x03")

	all, err := store.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sessions, err := store.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1", "page-2"}, sessions)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
