package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the ad server.
type Metrics struct {
	// Ad request metrics
	AdRequests      *prometheus.CounterVec
	AdRequestErrors *prometheus.CounterVec
	VastBuildTime   prometheus.Histogram

	// Beacon metrics
	Events        *prometheus.CounterVec
	BeaconFormats *prometheus.CounterVec

	// Storage metrics
	StorageFailures *prometheus.CounterVec

	// System metrics
	ActiveAds prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AdRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_requests_total",
				Help:      "Total ad requests by app and outcome",
			},
			[]string{"app_id", "status"},
		),
		AdRequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_request_errors_total",
				Help:      "Ad request errors by code",
			},
			[]string{"code"},
		),
		VastBuildTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vast_build_seconds",
				Help:      "VAST document generation latency",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		),
		Events: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracking_events_total",
				Help:      "Recorded tracking events by type",
			},
			[]string{"event"},
		),
		BeaconFormats: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "beacon_responses_total",
				Help:      "Beacon responses by payload format",
			},
			[]string{"format"},
		),
		StorageFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_failures_total",
				Help:      "Event persistence failures by store",
			},
			[]string{"store"},
		),
		ActiveAds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_ads",
				Help:      "Number of servable ads in the catalog",
			},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAdRequest records one ad request and its outcome.
func (m *Metrics) RecordAdRequest(appID, status string) {
	m.AdRequests.WithLabelValues(appID, status).Inc()
}

// RecordAdRequestError records a failed ad request by error code.
func (m *Metrics) RecordAdRequestError(code string) {
	m.AdRequestErrors.WithLabelValues(code).Inc()
}

// RecordVastBuild records document generation latency.
func (m *Metrics) RecordVastBuild(d time.Duration) {
	m.VastBuildTime.Observe(d.Seconds())
}

// RecordEvent records one tracking event.
func (m *Metrics) RecordEvent(event string) {
	m.Events.WithLabelValues(event).Inc()
}

// RecordBeaconFormat records the response format served to a beacon.
func (m *Metrics) RecordBeaconFormat(format string) {
	m.BeaconFormats.WithLabelValues(format).Inc()
}

// RecordStorageFailure records a persistence failure.
func (m *Metrics) RecordStorageFailure(store string) {
	m.StorageFailures.WithLabelValues(store).Inc()
}

// UpdateActiveAds updates the servable-ad count.
func (m *Metrics) UpdateActiveAds(n int) {
	m.ActiveAds.Set(float64(n))
}
