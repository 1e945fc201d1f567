package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the scheduler's observability surface: per-block counters and
// a registry the host process can expose however it likes (HTTP handler,
// pushgateway, etc). This is an ambient concern, not a graph feature, so it
// lives alongside the scheduler rather than behind a capability interface.
type Metrics struct {
	Registry *prometheus.Registry

	itemsProduced *prometheus.CounterVec
	itemsConsumed *prometheus.CounterVec
	blockedCalls  *prometheus.CounterVec
	contractFails *prometheus.CounterVec
}

// NewMetrics constructs a fresh metrics set registered against its own
// registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		itemsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockrt",
			Name:      "items_produced_total",
			Help:      "Items produced by a block, summed across its outputs.",
		}, []string{"block"}),
		itemsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockrt",
			Name:      "items_consumed_total",
			Help:      "Items consumed by a block, summed across its inputs.",
		}, []string{"block"}),
		blockedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockrt",
			Name:      "blocked_total",
			Help:      "Scheduler visits where a block was input- or output-blocked.",
		}, []string{"block", "reason"}),
		contractFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockrt",
			Name:      "contract_violations_total",
			Help:      "Contract violations observed per block.",
		}, []string{"block"}),
	}

	reg.MustRegister(m.itemsProduced, m.itemsConsumed, m.blockedCalls, m.contractFails)
	return m
}

func (m *Metrics) observeProduced(block string, n int) {
	if n > 0 {
		m.itemsProduced.WithLabelValues(block).Add(float64(n))
	}
}

func (m *Metrics) observeConsumed(block string, n int) {
	if n > 0 {
		m.itemsConsumed.WithLabelValues(block).Add(float64(n))
	}
}

func (m *Metrics) observeBlocked(block, reason string) {
	m.blockedCalls.WithLabelValues(block, reason).Inc()
}

func (m *Metrics) observeContractFailure(block string) {
	m.contractFails.WithLabelValues(block).Inc()
}
