// Package metric exposes prometheus instrumentation for a tracking run.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry        *prometheus.Registry
	framesProcessed prometheus.Counter
	procTime        prometheus.Histogram
	matchScore      *prometheus.GaugeVec
	survival        *prometheus.GaugeVec
	lostMethods     prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frames_processed_total",
			Help: "Number of video frames processed.",
		}),
		procTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "frame_processing_time_ms",
			Help: "Histogram of per-frame processing times.",
			// 1ms to 512ms, covering real-time playback up to slow
			// full-frame template scans.
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		matchScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "match_score",
			Help: "Latest similarity score per method.",
		}, []string{"method"}),
		survival: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frames_survived",
			Help: "Frames each method has stayed on target.",
		}, []string{"method"}),
		lostMethods: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lost_methods",
			Help: "Number of methods that have lost the target.",
		}),
	}

	m.registry.MustRegister(m.framesProcessed, m.procTime, m.matchScore, m.survival, m.lostMethods)
	return m
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFrame records the processing time of one frame.
func (m *Metrics) ObserveFrame(d time.Duration) {
	m.framesProcessed.Inc()
	m.procTime.Observe(float64(d.Milliseconds()))
}

// SetScore records the latest score for a method.
func (m *Metrics) SetScore(method string, score float64) {
	m.matchScore.WithLabelValues(method).Set(score)
}

// SetSurvival records a method's survival count.
func (m *Metrics) SetSurvival(method string, frames int) {
	m.survival.WithLabelValues(method).Set(float64(frames))
}

// SetLost records how many methods have lost the target.
func (m *Metrics) SetLost(n int) {
	m.lostMethods.Set(float64(n))
}
