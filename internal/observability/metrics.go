package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// snowfall evaluation engine.
type Metrics struct {
	CyclesTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
	LocationsChecked prometheus.Counter
	EngineRunning    prometheus.Gauge

	// Per-location outcomes.
	FetchErrors     *prometheus.CounterVec // labels: source
	Verifications   *prometheus.CounterVec // labels: outcome={agreed,disagreed,skipped}
	AlertsSent      *prometheus.CounterVec // labels: tier
	Suppressed      *prometheus.CounterVec // labels: reason
	NotifyFailures  prometheus.Counter
	PublishFailures prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.LocationsChecked,
		m.EngineRunning,
		m.FetchErrors,
		m.Verifications,
		m.AlertsSent,
		m.Suppressed,
		m.NotifyFailures,
		m.PublishFailures,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "cycles_total",
			Help:      "Total completed polling cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snowfall_alerts",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete evaluation cycle across all locations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LocationsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "locations_checked_total",
			Help:      "Total per-location evaluations across all cycles.",
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snowfall_alerts",
			Name:      "engine_running",
			Help:      "1 when the polling loop is active, 0 when shut down.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "fetch_errors_total",
			Help:      "Weather provider fetch failures by source.",
		}, []string{"source"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "verifications_total",
			Help:      "Cross-source verification attempts by outcome.",
		}, []string{"outcome"}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "alerts_sent_total",
			Help:      "Alert decisions that notified, by severity tier.",
		}, []string{"tier"}),
		Suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "suppressed_total",
			Help:      "Non-notifying decisions by suppression reason.",
		}, []string{"reason"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "notify_failures_total",
			Help:      "Slack deliveries that failed after retries.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowfall_alerts",
			Name:      "publish_failures_total",
			Help:      "Decision stream publishes that failed.",
		}),
	}
}
