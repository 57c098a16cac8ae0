package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

// Metrics contains all Prometheus metrics of the service
type Metrics struct {
	// Page connection metrics
	ConnectedPages   prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	MessageSent      prometheus.Counter

	// Provider request metrics
	RPCRequests        *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	// Transaction metrics
	TransactionsObserved *prometheus.CounterVec
	StoredTransactions   prometheus.Gauge
	PrefundFailures      prometheus.Counter
}

// NewMetrics initializes and registers metrics with the default registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		ConnectedPages: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mockwallet_connected_pages",
			Help: "The current number of connected pages",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockwallet_connections_total",
			Help: "The total number of page connections since start",
		}),
		MessageSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockwallet_ws_messages_sent_total",
			Help: "The total number of WebSocket messages sent",
		}),
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockwallet_rpc_requests_total",
				Help: "The total number of provider requests by method",
			},
			[]string{"method", "status"},
		),
		RPCRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mockwallet_rpc_request_duration_seconds",
				Help:    "Provider request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		TransactionsObserved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockwallet_transactions_observed_total",
				Help: "The total number of eth_sendTransaction calls seen",
			},
			[]string{"mode", "status"},
		),
		StoredTransactions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mockwallet_stored_transactions",
			Help: "The number of observed transactions in the snapshot store",
		}),
		PrefundFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockwallet_prefund_failures_total",
			Help: "The total number of wallets that could not be funded",
		}),
	}
}

// ObserveRequest records one served provider request.
func (m *Metrics) ObserveRequest(method string, took time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RPCRequests.WithLabelValues(method, status).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(took.Seconds())
}

// RecordMetricsPeriodically refreshes store backed gauges until ctx ends.
func (m *Metrics) RecordMetricsPeriodically(ctx context.Context, store *SnapshotStore, interval time.Duration, logger log.Logger) {
	logger = logger.Named("metrics")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.UpdateStoreMetrics(store); err != nil {
				logger.Warn("failed to update store metrics", "err", err)
			}
		}
	}
}

func (m *Metrics) UpdateStoreMetrics(store *SnapshotStore) error {
	count, err := store.Count()
	if err != nil {
		return err
	}
	m.StoredTransactions.Set(float64(count))
	return nil
}
