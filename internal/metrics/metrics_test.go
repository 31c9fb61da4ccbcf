package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderBookMetrics_RegistersAllCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOrderBookMetrics(registry)

	m.OrdersSubmitted.WithLabelValues("buy", "limit").Inc()
	m.TradesExecuted.Add(2)
	m.ActiveSubscribers.Set(3)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["orderbook_orders_submitted_total"])
	assert.True(t, names["orderbook_trades_executed_total"])
	assert.True(t, names["orderbook_depth_subscribers"])
}

func TestOrderBookMetrics_TradesExecutedCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOrderBookMetrics(registry)

	m.TradesExecuted.Add(5)

	var metric dto.Metric
	require.NoError(t, m.TradesExecuted.Write(&metric))
	assert.Equal(t, float64(5), metric.GetCounter().GetValue())
}
