package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/rpc"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/sign"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/wallet"
)

const defaultPrefundTimeout = 10 * time.Second

// forwardedEvents are the provider events relayed to the page.
var forwardedEvents = []string{
	bridge.EventConnect,
	bridge.EventDisconnect,
	bridge.EventChainChanged,
	bridge.EventAccountsChanged,
}

// NotifyFunc delivers a provider event to one page connection.
type NotifyFunc func(connID, event string, payload ...any) bool

type SessionConfig struct {
	// Delegate answers everything the wallet does not handle itself.
	Delegate bridge.Delegate
	// Backend is what live transactions are populated and sent through.
	Backend wallet.Backend
	// PrivateKey signs for every page. Empty means a new burn wallet per page.
	PrivateKey   string
	ChainID      *big.Int
	Mode         bridge.Mode
	ConnectDelay time.Duration
	// PrefundWei, when set, is the balance given to each page's wallet.
	PrefundWei *big.Int
}

// SessionManager gives every connected page its own injected wallet.
type SessionManager struct {
	cfg     SessionConfig
	store   *SnapshotStore
	metrics *Metrics
	notify  NotifyFunc
	logger  log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Session is the wallet state of one page.
type Session struct {
	ID      string
	Page    *bridge.PageContext
	adapter *bridge.Adapter
	cleanup []func()
}

func NewSessionManager(cfg SessionConfig, store *SnapshotStore, metrics *Metrics, notify NotifyFunc, logger log.Logger) *SessionManager {
	if notify == nil {
		notify = func(string, string, ...any) bool { return false }
	}
	return &SessionManager{
		cfg:      cfg,
		store:    store,
		metrics:  metrics,
		notify:   notify,
		logger:   logger.Named("sessions"),
		sessions: make(map[string]*Session),
	}
}

// Open sets up the wallet for a newly connected page.
func (m *SessionManager) Open(conn rpc.Connection) (rpc.Handler, error) {
	id := conn.ConnectionID()
	logger := m.logger.With("sessionId", id)

	signer, err := m.newSigner()
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: id, Page: bridge.NewPageContext()}
	prov, _, err := bridge.Install(sess.Page, func() (bridge.Provider, error) {
		return bridge.NewAdapter(m.cfg.Delegate, wallet.New(signer, m.cfg.Backend), bridge.Config{
			ChainID:      m.cfg.ChainID,
			Mode:         m.cfg.Mode,
			ConnectDelay: m.cfg.ConnectDelay,
			Logger:       logger,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to install wallet: %w", err)
	}
	sess.adapter = prov.(*bridge.Adapter)

	for _, event := range forwardedEvents {
		sess.cleanup = append(sess.cleanup, sess.adapter.Subscribe(event, func(payload ...any) {
			if !m.notify(id, event, payload...) {
				logger.Debug("event not delivered", "event", event)
			}
		}))
	}
	sess.cleanup = append(sess.cleanup, sess.adapter.Observe(func(obs bridge.TxObservation) {
		m.record(sess, obs, logger)
	}))

	if m.cfg.PrefundWei != nil {
		m.prefund(sess, logger)
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectedPages.Inc()
		m.metrics.ConnectionsTotal.Inc()
	}
	logger.Info("wallet injected", "address", sess.adapter.Address().Hex(), "mode", sess.adapter.Mode())
	return sess, nil
}

// Close tears down the wallet of a disconnected page.
func (m *SessionManager) Close(connID string) {
	m.mu.Lock()
	sess, ok := m.sessions[connID]
	delete(m.sessions, connID)
	m.mu.Unlock()
	if !ok {
		return
	}

	sess.adapter.Close()
	for _, fn := range sess.cleanup {
		fn()
	}
	if m.metrics != nil {
		m.metrics.ConnectedPages.Dec()
	}
	m.logger.Info("session closed", "sessionId", connID)
}

// Get returns the session of an open connection.
func (m *SessionManager) Get(connID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[connID]
	return sess, ok
}

func (m *SessionManager) newSigner() (*sign.EthereumSigner, error) {
	if m.cfg.PrivateKey == "" {
		return sign.NewRandomEthereumSigner()
	}
	return sign.NewEthereumSigner(m.cfg.PrivateKey)
}

func (m *SessionManager) prefund(sess *Session, logger log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPrefundTimeout)
	defer cancel()

	if err := sess.adapter.Prefund(ctx, m.cfg.PrefundWei); err != nil {
		logger.Warn("failed to prefund wallet", "err", err)
		if m.metrics != nil {
			m.metrics.PrefundFailures.Inc()
		}
		return
	}
	logger.Debug("wallet prefunded", "wei", m.cfg.PrefundWei.String())
}

func (m *SessionManager) record(sess *Session, obs bridge.TxObservation, logger log.Logger) {
	status := "success"
	if obs.Err != nil {
		status = "error"
	}
	if m.metrics != nil {
		m.metrics.TransactionsObserved.WithLabelValues(string(obs.Mode), status).Inc()
	}
	if m.store == nil {
		return
	}
	if _, err := m.store.Record(sess.ID, sess.adapter.Address().Hex(), obs); err != nil {
		logger.Error("failed to record transaction", "err", err)
	}
}

// Address is the account the page's wallet signs with.
func (s *Session) Address() string { return s.adapter.Address().Hex() }

// HandleRequest serves a page's provider request through its wallet.
func (s *Session) HandleRequest(ctx context.Context, method string, params []any) (any, error) {
	res, err := s.adapter.Request(ctx, method, params)
	if err != nil {
		return nil, providerError(err)
	}
	return res, nil
}

// providerError keeps codes the node sent and gives local failures a
// JSON-RPC code the page can act on.
func providerError(err error) error {
	switch {
	case errors.Is(err, bridge.ErrInvalidParams), errors.Is(err, bridge.ErrConventionMismatch):
		return &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	default:
		return err
	}
}
