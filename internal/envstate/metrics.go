package envstate

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional set of counters Sync and Rollback increment
// when wired. A nil *Metrics (the default Engine has none) makes every
// increment a no-op, matching how the teacher's own reconciliation
// loops treat metrics as supplementary instrumentation rather than a
// required dependency.
type Metrics struct {
	SyncTotal       prometheus.Counter
	RollbackTotal   prometheus.Counter
	SyncErrorsTotal prometheus.Counter
}

// NewMetrics registers comfygit's sync/rollback counters with reg and
// returns a Metrics ready to pass to an Engine. Safe to call with a
// fresh prometheus.Registry per process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comfygit_sync_total", Help: "Number of environment sync operations run.",
		}),
		RollbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comfygit_rollback_total", Help: "Number of environment rollback operations run.",
		}),
		SyncErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comfygit_sync_errors_total", Help: "Number of environment sync operations that recorded at least one error.",
		}),
	}
	reg.MustRegister(m.SyncTotal, m.RollbackTotal, m.SyncErrorsTotal)
	return m
}

func (m *Metrics) recordSync(errored bool) {
	if m == nil {
		return
	}
	m.SyncTotal.Inc()
	if errored {
		m.SyncErrorsTotal.Inc()
	}
}

func (m *Metrics) recordRollback() {
	if m == nil {
		return
	}
	m.RollbackTotal.Inc()
}
