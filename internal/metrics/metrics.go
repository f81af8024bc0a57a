// Package metrics exposes Prometheus counters/gauges for the analyzer
// services and event bus (spec.md §4.9's task topology, an ambient
// concern spec.md itself doesn't name as a component but that every
// service-shaped repo in the pack carries). Grounded on
// marmos91-dittofs/pkg/metrics/prometheus's promauto.With(reg) +
// CounterVec/GaugeVec construction style, and on its IsEnabled()
// nil-safe-accessor pattern for "zero overhead when disabled".
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/gauge this service reports. A nil
// *Metrics is valid: every method is a no-op on a nil receiver, so
// callers that never call Init() pay zero overhead, matching dittofs's
// convention of passing a nil metrics implementation when disabled.
type Metrics struct {
	connectedSessions   *prometheus.GaugeVec
	framesDecodedTotal  *prometheus.CounterVec
	framesRejectedTotal *prometheus.CounterVec
	resultsProcessed    *prometheus.CounterVec
	hisDeliveryAttempts *prometheus.CounterVec
}

var (
	mu       sync.Mutex
	instance *Metrics
)

// Init constructs and registers the metrics set against reg exactly
// once. Subsequent calls return the already-constructed instance. Init
// is never called when metrics are disabled (AppConfig.Metrics.Enabled
// == false); IsEnabled() reports whether it has been.
func Init(reg *prometheus.Registry) *Metrics {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance
	}

	instance = &Metrics{
		connectedSessions: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lis_connected_sessions",
				Help: "Number of currently connected analyzer sessions, by analyzer id.",
			},
			[]string{"analyzer_id"},
		),
		framesDecodedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lis_frames_decoded_total",
				Help: "Total number of wire frames successfully decoded, by protocol.",
			},
			[]string{"protocol"},
		),
		framesRejectedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lis_frames_rejected_total",
				Help: "Total number of wire frames rejected (checksum/format errors), by protocol.",
			},
			[]string{"protocol"},
		),
		resultsProcessed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lis_results_processed_total",
				Help: "Total number of reassembled result messages processed, by analyzer id.",
			},
			[]string{"analyzer_id"},
		),
		hisDeliveryAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lis_his_delivery_attempts_total",
				Help: "Total number of HIS delivery attempts, by outcome (success/failure).",
			},
			[]string{"outcome"},
		),
	}
	return instance
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return instance != nil
}

// Reset clears the package-level singleton. Test-only: lets successive
// tests call Init against fresh registries without tripping
// promauto's duplicate-registration panic.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

func (m *Metrics) SetConnectedSessions(analyzerID string, count int) {
	if m == nil {
		return
	}
	m.connectedSessions.WithLabelValues(analyzerID).Set(float64(count))
}

func (m *Metrics) IncFramesDecoded(protocol string) {
	if m == nil {
		return
	}
	m.framesDecodedTotal.WithLabelValues(protocol).Inc()
}

func (m *Metrics) IncFramesRejected(protocol string) {
	if m == nil {
		return
	}
	m.framesRejectedTotal.WithLabelValues(protocol).Inc()
}

func (m *Metrics) IncResultsProcessed(analyzerID string) {
	if m == nil {
		return
	}
	m.resultsProcessed.WithLabelValues(analyzerID).Inc()
}

func (m *Metrics) IncHISDeliveryAttempt(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.hisDeliveryAttempts.WithLabelValues(outcome).Inc()
}
