package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
)

// ObservedTransaction is one eth_sendTransaction a page made, successful
// or not.
type ObservedTransaction struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID string         `gorm:"column:session_id;type:varchar(64);index;not null"`
	Method    string         `gorm:"column:method;type:varchar(64);not null"`
	Params    datatypes.JSON `gorm:"column:params;not null"`
	Prepared  datatypes.JSON `gorm:"column:prepared"`
	Result    datatypes.JSON `gorm:"column:result"`
	Error     string         `gorm:"column:error;not null"`
	Mode      string         `gorm:"column:mode;type:varchar(16);not null"`
	Signer    string         `gorm:"column:signer;type:varchar(42);not null"`
	CreatedAt time.Time
}

func (ObservedTransaction) TableName() string {
	return "observed_transactions"
}

// Failed reports whether the page saw an error for this transaction.
func (t ObservedTransaction) Failed() bool {
	return t.Error != ""
}

type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Record stores obs under sessionID.
func (s *SnapshotStore) Record(sessionID, signer string, obs bridge.TxObservation) (*ObservedTransaction, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	params, err := json.Marshal(obs.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	row := &ObservedTransaction{
		SessionID: sessionID,
		Method:    obs.Method,
		Params:    params,
		Mode:      string(obs.Mode),
		Signer:    signer,
		CreatedAt: obs.At,
	}
	if obs.Prepared != nil {
		if row.Prepared, err = json.Marshal(obs.Prepared); err != nil {
			return nil, fmt.Errorf("failed to encode prepared transaction: %w", err)
		}
	}
	if obs.Result != nil {
		if row.Result, err = json.Marshal(obs.Result); err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
	}
	if obs.Err != nil {
		row.Error = obs.Err.Error()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	if err := s.db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to store observed transaction: %w", err)
	}
	return row, nil
}

// List returns the transactions of sessionID in the order they were made.
// An empty sessionID lists every session.
func (s *SnapshotStore) List(sessionID string) ([]ObservedTransaction, error) {
	q := s.db.Model(&ObservedTransaction{})
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	var rows []ObservedTransaction
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list observed transactions: %w", err)
	}
	return rows, nil
}

// Sessions lists the session ids that observed at least one transaction.
func (s *SnapshotStore) Sessions() ([]string, error) {
	var ids []string
	err := s.db.Model(&ObservedTransaction{}).
		Distinct("session_id").
		Order("session_id").
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

func (s *SnapshotStore) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&ObservedTransaction{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count observed transactions: %w", err)
	}
	return n, nil
}
