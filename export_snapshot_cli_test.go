package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshot(t *testing.T) *SnapshotStore {
	t.Helper()
	store := NewSnapshotStore(setupTestDB(t))

	_, err := store.Record("page-1", testSigner, observed("0xaa", common.HexToHash("0xbeef"), nil))
	require.NoError(t, err)
	_, err = store.Record("page-1", testSigner, observed("0xbb", nil, errors.New("user rejected")))
	require.NoError(t, err)
	_, err = store.Record("page-2", testSigner, observed("0xcc", common.HexToHash("0xcafe"), nil))
	require.NoError(t, err)
	return store
}

func TestSnapshotExporterEntries(t *testing.T) {
	exporter := NewSnapshotExporter(seedSnapshot(t))

	entries, err := exporter.Entries("page-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ok := entries[0]
	assert.Equal(t, "eth_sendTransaction", ok.WriteTx.Method)
	assert.Contains(t, string(ok.WriteTx.Params), `"to":"0xaa"`)
	assert.Nil(t, ok.WriteTxException)
	assert.JSONEq(t, `"`+common.HexToHash("0xbeef").Hex()+`"`, string(ok.WriteTxResult))

	failed := entries[1]
	require.NotNil(t, failed.WriteTxException)
	assert.Equal(t, "user rejected", *failed.WriteTxException)
	assert.JSONEq(t, "null", string(failed.WriteTxResult))
}

func TestSnapshotExporterJSONShape(t *testing.T) {
	exporter := NewSnapshotExporter(seedSnapshot(t))

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportJSON(&buf, "page-2"))

	var decoded []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Contains(t, decoded[0], "writeTx")
	assert.Contains(t, decoded[0], "writeTxException")
	assert.Contains(t, decoded[0], "writeTxResult")
	assert.JSONEq(t, "null", string(decoded[0]["writeTxException"]))
}

func TestSnapshotExporterExportToFile(t *testing.T) {
	exporter := NewSnapshotExporter(seedSnapshot(t))
	dir := filepath.Join(t.TempDir(), "results", "story")

	fileName, err := exporter.ExportToFile(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tx_snapshot.json"), fileName)

	raw, err := os.ReadFile(fileName)
	require.NoError(t, err)
	var entries []SnapshotEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 3)
}

func TestSnapshotExporterEmptySession(t *testing.T) {
	exporter := NewSnapshotExporter(NewSnapshotStore(setupTestDB(t)))

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportJSON(&buf, "missing"))
	assert.JSONEq(t, "[]", buf.String())
}

func TestSnapshotExporterServeHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /snapshot/{session}", NewSnapshotExporter(seedSnapshot(t)))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot/page-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var entries []SnapshotEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}
