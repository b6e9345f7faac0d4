package core

import "github.com/prometheus/client_golang/prometheus"

// ControllerMetrics exposes the ambient block/transaction/charge counters a
// chain instance running this core is expected to scrape; it is ancillary
// observability, not the charge/billing policy itself.
type ControllerMetrics struct {
	registry        *prometheus.Registry
	blocksApplied   prometheus.Counter
	trxApplied      prometheus.Counter
	trxRolledBack   prometheus.Counter
	savepointDepth  prometheus.Gauge
	chargeCollected prometheus.Counter
}

// NewControllerMetrics builds a fresh, self-registered metrics set. A
// Controller with nil metrics simply skips instrumentation.
func NewControllerMetrics() *ControllerMetrics {
	reg := prometheus.NewRegistry()
	m := &ControllerMetrics{
		registry: reg,
		blocksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jmzk_core_blocks_applied_total",
			Help: "Total number of blocks passed to Controller.ApplyBlock",
		}),
		trxApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jmzk_core_transactions_applied_total",
			Help: "Total number of transactions accepted",
		}),
		trxRolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jmzk_core_transactions_rolled_back_total",
			Help: "Total number of transactions rolled back due to a ChainError",
		}),
		savepointDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jmzk_core_savepoint_depth",
			Help: "Current depth of the token database's savepoint stack",
		}),
		chargeCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jmzk_core_charge_collected_total",
			Help: "Total computed charge across all accepted transactions",
		}),
	}
	reg.MustRegister(m.blocksApplied, m.trxApplied, m.trxRolledBack, m.savepointDepth, m.chargeCollected)
	return m
}

// Registry returns the Prometheus registry metrics were registered against,
// for wiring into an HTTP exposition handler.
func (m *ControllerMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *ControllerMetrics) observeBlock(depth int) {
	if m == nil {
		return
	}
	m.blocksApplied.Inc()
	m.savepointDepth.Set(float64(depth))
}

func (m *ControllerMetrics) observeTrx(res TrxResult, charge int64) {
	if m == nil {
		return
	}
	if res.Err != nil {
		m.trxRolledBack.Inc()
		return
	}
	m.trxApplied.Inc()
	m.chargeCollected.Add(float64(charge))
}
