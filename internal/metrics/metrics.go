// Package metrics exposes Prometheus instrumentation for the resolution
// pass. Metrics are optional: nothing is registered until InitMetrics is
// called, so library use and tests stay collector-free by default.
package metrics

import (
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	secretsResolvedTotal *prometheus.CounterVec
	fetchDuration        *prometheus.HistogramVec
	fragmentsPlanned     prometheus.Counter
	conflictsTotal       prometheus.Counter

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics registers all Prometheus metrics. Call once at startup when
// metrics are enabled; subsequent calls are no-ops.
func InitMetrics() {
	metricsOnce.Do(func() {
		secretsResolvedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretwire_secrets_resolved_total",
				Help: "Secrets processed by the resolution pass, by outcome",
			},
			[]string{"outcome"},
		)

		fetchDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secretwire_fetch_duration_seconds",
				Help:    "Duration of connector fetch calls",
				Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 15, 30},
			},
			[]string{"connector"},
		)

		fragmentsPlanned = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "secretwire_fragments_planned_total",
				Help: "Injection fragments planned across all units",
			},
		)

		conflictsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "secretwire_injection_conflicts_total",
				Help: "Injection conflicts detected across runs",
			},
		)

		metricsRegistered = true
	})
}

// Dump writes every registered metric to w in the Prometheus text
// exposition format, the same payload a scrape endpoint would serve. The
// process is one-shot, so the counters are reported at exit instead of
// through a listener. No-op until InitMetrics has run.
func Dump(w io.Writer) error {
	if !metricsRegistered {
		return nil
	}
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return err
		}
	}
	return nil
}

// RecordSecretOutcome counts one secret reaching a terminal state
// ("materialized" or "failed").
func RecordSecretOutcome(outcome string) {
	if !metricsRegistered {
		return
	}
	secretsResolvedTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the duration of one connector fetch.
func ObserveFetch(connector string, d time.Duration) {
	if !metricsRegistered {
		return
	}
	fetchDuration.WithLabelValues(connector).Observe(d.Seconds())
}

// RecordFragments counts planned fragments.
func RecordFragments(n int) {
	if !metricsRegistered {
		return
	}
	fragmentsPlanned.Add(float64(n))
}

// RecordConflict counts one detected injection conflict.
func RecordConflict() {
	if !metricsRegistered {
		return
	}
	conflictsTotal.Inc()
}
