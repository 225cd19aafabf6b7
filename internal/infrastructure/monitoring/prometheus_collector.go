package monitoring

import (
	"time"

	"stagecast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports broadcast and vendor-call metrics. It
// satisfies both the core MetricsRecorder port and the vendor client's
// call observer.
type PrometheusCollector struct {
	credentialsIssued *prometheus.CounterVec

	broadcastsStarted prometheus.Counter
	broadcastsEnded   prometheus.Counter
	broadcastsActive  prometheus.Gauge

	speakerSwitches prometheus.Counter

	vendorCallDuration *prometheus.HistogramVec
	vendorCallErrors   *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		credentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_credentials_issued_total",
			Help: "Credentials issued, labeled by requested role",
		}, []string{"role"}),

		broadcastsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_broadcasts_started_total",
			Help: "Broadcasts started via the vendor API",
		}),

		broadcastsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_broadcasts_ended_total",
			Help: "Broadcasts ended, including failed vendor stops",
		}),

		broadcastsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagecast_broadcasts_active",
			Help: "Broadcast records currently active",
		}),

		speakerSwitches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_speaker_switches_total",
			Help: "Active-speaker focus changes pushed to the layout",
		}),

		vendorCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stagecast_vendor_call_duration_seconds",
			Help:    "Vendor API round-trip duration per operation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"operation"}),

		vendorCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_vendor_call_errors_total",
			Help: "Failed vendor API calls per operation",
		}, []string{"operation"}),
	}
}

func (p *PrometheusCollector) RecordCredentialsIssued(role domain.Role) {
	p.credentialsIssued.WithLabelValues(string(role)).Inc()
}

func (p *PrometheusCollector) RecordBroadcastStarted() {
	p.broadcastsStarted.Inc()
	p.broadcastsActive.Inc()
}

func (p *PrometheusCollector) RecordBroadcastEnded() {
	p.broadcastsEnded.Inc()
	p.broadcastsActive.Dec()
}

func (p *PrometheusCollector) RecordSpeakerSwitch() {
	p.speakerSwitches.Inc()
}

func (p *PrometheusCollector) ObserveVendorCall(operation string, duration time.Duration, err error) {
	p.vendorCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		p.vendorCallErrors.WithLabelValues(operation).Inc()
	}
}
