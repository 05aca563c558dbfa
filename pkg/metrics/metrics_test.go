package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TransactionSimulated(true, 100)
	m.TransactionSimulated(true, 100)
	m.TransactionSimulated(false, 0)
	m.CacheLookup("hit")
	m.SlotWarped(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.slot))
	assert.Equal(t, uint64(200), m.UnitsTotal())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestMetrics_Unregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.TransactionSimulated(true, 150)
	assert.Equal(t, uint64(150), m.UnitsTotal())
	// the first sample seeds the average
	assert.Equal(t, 150.0, m.UnitsMovingAverage())
}
