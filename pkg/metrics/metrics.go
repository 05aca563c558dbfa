// Package metrics collects simulator counters for Prometheus.
package metrics

import (
	"sync"

	"github.com/VividCortex/ewma"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "upgradesim"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	transactions *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	slot         prometheus.Gauge
	warps        prometheus.Counter

	mu         sync.Mutex
	unitsEWMA  ewma.MovingAverage
	unitsTotal uint64
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_simulated_total",
			Help:      "transactions simulated, by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "program_cache_lookups_total",
			Help:      "program cache lookups, by result",
		}, []string{"result"}),
		slot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slot",
			Help:      "most recent slot warped to",
		}),
		warps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warps_total",
			Help:      "successful slot warps",
		}),
		unitsEWMA: ewma.NewMovingAverage(),
	}

	if reg != nil {
		reg.MustRegister(m.transactions, m.cacheLookups, m.slot, m.warps)
	}
	return m
}

// TransactionSimulated records one simulated transaction.
func (m *Metrics) TransactionSimulated(success bool, unitsConsumed uint64) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.transactions.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitsEWMA.Add(float64(unitsConsumed))
	m.unitsTotal += unitsConsumed
}

func (m *Metrics) CacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SlotWarped(slot uint64) {
	m.slot.Set(float64(slot))
	m.warps.Inc()
}

// UnitsMovingAverage is the moving average of compute units per transaction.
func (m *Metrics) UnitsMovingAverage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unitsEWMA.Value()
}

func (m *Metrics) UnitsTotal() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unitsTotal
}
