// Package metrics exposes Prometheus metrics for chat operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bitfsorg/whochat/chat"
)

const namespace = "whochat"

// Recorder owns a private registry and the chat operation metrics.
// It implements chat.Observer.
type Recorder struct {
	reg *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	created    prometheus.Counter
}

// New creates a Recorder with the chat metrics and the Go and process
// collectors registered.
func New(logger zerolog.Logger) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Chat operations by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Chat operation latency, dominated by key stretching.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"op"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chats_created_total",
			Help:      "Chats created since start.",
		}),
	}
	r.reg.MustRegister(
		r.operations,
		r.duration,
		r.created,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	logger.Debug().Msg("prometheus metrics initialized")
	return r
}

// Observe records one completed chat operation.
func (r *Recorder) Observe(op string, err error, elapsed time.Duration) {
	r.operations.WithLabelValues(op, chat.Label(err)).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	if op == chat.OpCreate && err == nil {
		r.created.Inc()
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
