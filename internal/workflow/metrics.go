package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// Metrics are the engine's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	outcomes    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytseo",
			Subsystem: "workflow",
			Name:      "video_outcomes_total",
			Help:      "Per-video batch outcomes by operation.",
		}, []string{"operation", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ytseo",
			Subsystem: "workflow",
			Name:      "video_duration_seconds",
			Help:      "Time spent on one video by operation.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"operation"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytseo",
			Subsystem: "workflow",
			Name:      "status_transitions_total",
			Help:      "Video status changes.",
		}, []string{"from", "to"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytseo",
			Subsystem: "seo",
			Name:      "field_fallbacks_total",
			Help:      "Generated fields replaced by their fallback value.",
		}, []string{"field"}),
	}
}

func (m *Metrics) observe(op string, o Outcome, started time.Time) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(op, string(o.Status)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) transition(from, to models.Status) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// FieldFallback counts one generated field that fell back to its default.
func (m *Metrics) FieldFallback(field string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(field).Inc()
}
