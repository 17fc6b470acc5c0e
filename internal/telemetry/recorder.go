package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sidecar"

// Recorder holds the pipeline counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	linesReceived    prometheus.Counter
	parseErrors      *prometheus.CounterVec // By kind
	metricsQueued    prometheus.Counter
	storageErrors    *prometheus.CounterVec // By op: insert, list, delete, count
	metricsForwarded prometheus.Counter
	forwardErrors    prometheus.Counter
	queueDepth       prometheus.Gauge
}

// NewRecorder creates the pipeline metrics and registers them with reg.
// A nil registerer disables metrics and yields a nil recorder.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}

	r := &Recorder{
		linesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "lines_received_total",
			Help:      "Total number of lines read from the ingest socket",
		}),
		parseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "parse_errors_total",
			Help:      "Total number of lines rejected by the parser",
		}, []string{"kind"}),
		metricsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "metrics_queued_total",
			Help:      "Total number of metrics stored in the queue",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "storage_errors_total",
			Help:      "Total number of failed queue operations",
		}, []string{"op"}),
		metricsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publisher",
			Name:      "metrics_forwarded_total",
			Help:      "Total number of metrics acknowledged by the collector",
		}),
		forwardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publisher",
			Name:      "forward_errors_total",
			Help:      "Total number of failed forward attempts",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of metrics waiting to be forwarded",
		}),
	}

	collectors := []prometheus.Collector{
		r.linesReceived,
		r.parseErrors,
		r.metricsQueued,
		r.storageErrors,
		r.metricsForwarded,
		r.forwardErrors,
		r.queueDepth,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// LineReceived counts a line read from a connection.
func (r *Recorder) LineReceived() {
	if r == nil {
		return
	}
	r.linesReceived.Inc()
}

// ParseError counts a rejected line by error kind.
func (r *Recorder) ParseError(kind string) {
	if r == nil {
		return
	}
	r.parseErrors.WithLabelValues(kind).Inc()
}

// MetricQueued counts a successful insert.
func (r *Recorder) MetricQueued() {
	if r == nil {
		return
	}
	r.metricsQueued.Inc()
}

// StorageError counts a failed queue operation.
func (r *Recorder) StorageError(op string) {
	if r == nil {
		return
	}
	r.storageErrors.WithLabelValues(op).Inc()
}

// MetricForwarded counts a metric confirmed by the collector.
func (r *Recorder) MetricForwarded() {
	if r == nil {
		return
	}
	r.metricsForwarded.Inc()
}

// ForwardError counts a failed forward.
func (r *Recorder) ForwardError() {
	if r == nil {
		return
	}
	r.forwardErrors.Inc()
}

// SetQueueDepth records the number of pending metrics.
func (r *Recorder) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.queueDepth.Set(float64(n))
}
