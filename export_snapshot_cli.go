package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

const snapshotFileName = "tx_snapshot.json"

// SnapshotEntry is one transaction in tx_snapshot.json.
type SnapshotEntry struct {
	WriteTx          SnapshotTx      `json:"writeTx"`
	WriteTxException *string         `json:"writeTxException"`
	WriteTxResult    json.RawMessage `json:"writeTxResult"`
}

type SnapshotTx struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// SnapshotExporter writes observed transactions in the format story
// reports compare against.
type SnapshotExporter struct {
	store *SnapshotStore
}

func NewSnapshotExporter(store *SnapshotStore) *SnapshotExporter {
	return &SnapshotExporter{store: store}
}

// Entries returns the snapshot of sessionID, or of every session when it
// is empty.
func (e *SnapshotExporter) Entries(sessionID string) ([]SnapshotEntry, error) {
	rows, err := e.store.List(sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]SnapshotEntry, 0, len(rows))
	for _, row := range rows {
		entry := SnapshotEntry{
			WriteTx: SnapshotTx{
				Method: row.Method,
				Params: json.RawMessage(row.Params),
			},
			WriteTxResult: json.RawMessage("null"),
		}
		if row.Failed() {
			msg := row.Error
			entry.WriteTxException = &msg
		} else if len(row.Result) > 0 {
			entry.WriteTxResult = json.RawMessage(row.Result)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *SnapshotExporter) ExportJSON(w io.Writer, sessionID string) error {
	entries, err := e.Entries(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ExportToFile writes the snapshot to <dir>/tx_snapshot.json.
func (e *SnapshotExporter) ExportToFile(dir, sessionID string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	fileName := filepath.Join(dir, snapshotFileName)
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file %s: %w", fileName, err)
	}
	defer file.Close()

	if err := e.ExportJSON(file, sessionID); err != nil {
		return "", err
	}
	return fileName, nil
}

// ServeHTTP answers GET /snapshot/{session} with the session's snapshot.
func (e *SnapshotExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries, err := e.Entries(r.PathValue("session"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func runExportSnapshotCli(logger log.Logger) {
	logger = logger.Named("export-snapshot")
	if len(os.Args) > 3 {
		logger.Fatal("Usage: mockwallet export-snapshot [sessionID]")
	}

	var sessionID string
	if len(os.Args) == 3 {
		sessionID = os.Args[2]
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	db, err := ConnectToDB(config.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}

	fileName, err := NewSnapshotExporter(NewSnapshotStore(db)).ExportToFile(config.ResultsDir, sessionID)
	if err != nil {
		logger.Fatal("failed to export snapshot", "err", err)
	}
	logger.Info("snapshot exported", "file", fileName, "sessionId", sessionID)
}
