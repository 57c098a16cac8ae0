package main

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMetric(t *testing.T, m prometheus.Metric) *dto.Metric {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	return &out
}

func TestMetricsObserveRequest(t *testing.T) {
	metrics := NewMetricsWithRegistry(prometheus.NewRegistry())

	metrics.ObserveRequest("eth_accounts", time.Millisecond, nil)
	metrics.ObserveRequest("eth_accounts", time.Millisecond, nil)
	metrics.ObserveRequest("eth_call", time.Millisecond, errors.New("reverted"))

	ok := readMetric(t, metrics.RPCRequests.WithLabelValues("eth_accounts", "success"))
	assert.Equal(t, 2.0, ok.GetCounter().GetValue())

	failed := readMetric(t, metrics.RPCRequests.WithLabelValues("eth_call", "error"))
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	latency := readMetric(t, metrics.RPCRequestDuration.WithLabelValues("eth_accounts").(prometheus.Metric))
	assert.Equal(t, uint64(2), latency.GetHistogram().GetSampleCount())
}

func TestMetricsUpdateStoreMetrics(t *testing.T) {
	metrics := NewMetricsWithRegistry(prometheus.NewRegistry())
	store := NewSnapshotStore(setupTestDB(t))

	_, err := store.Record("page-1", testSigner, observed("0xaa", common.Hash{}, nil))
	require.NoError(t, err)
	_, err = store.Record("page-1", testSigner, observed("0xbb", common.Hash{}, nil))
	require.NoError(t, err)

	require.NoError(t, metrics.UpdateStoreMetrics(store))
	assert.Equal(t, 2.0, readMetric(t, metrics.StoredTransactions).GetGauge().GetValue())
}
