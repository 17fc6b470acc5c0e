package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
	"github.com/sbilibin2017/telemetry-sidecar/internal/telemetry"
)

//go:generate mockgen -source=metric.go -destination=metric_mock.go -package=workers

// Lister reads the pending metrics from the queue.
type Lister interface {
	// List returns all queued metrics, oldest first.
	List(ctx context.Context) ([]*models.Metric, error)
}

// Deleter removes forwarded metrics from the queue.
type Deleter interface {
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id int64) error
}

// Forwarder delivers a metric to the collector.
type Forwarder interface {
	// Forward returns nil only when the collector accepted the metric.
	Forward(ctx context.Context, metric *models.Metric) error
}

// MetricPublisher periodically drains the queue into the forwarder.
// A record is deleted only after it was forwarded successfully.
type MetricPublisher struct {
	ticker    *time.Ticker // drives publishing ticks
	lister    Lister       // queue snapshot source
	deleter   Deleter      // removes acknowledged records
	forwarder Forwarder    // collector sink
	log       *zap.Logger
	recorder  *telemetry.Recorder
}

// Opt configures a MetricPublisher.
type Opt func(*MetricPublisher)

// WithLogger sets the publisher logger.
func WithLogger(log *zap.Logger) Opt {
	return func(p *MetricPublisher) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRecorder sets the pipeline metrics recorder.
func WithRecorder(r *telemetry.Recorder) Opt {
	return func(p *MetricPublisher) {
		p.recorder = r
	}
}

// NewMetricPublisher creates a publisher that runs one tick per ticker event.
func NewMetricPublisher(
	ticker *time.Ticker,
	lister Lister,
	deleter Deleter,
	forwarder Forwarder,
	opts ...Opt,
) *MetricPublisher {
	p := &MetricPublisher{
		ticker:    ticker,
		lister:    lister,
		deleter:   deleter,
		forwarder: forwarder,
		log:       logger.Log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs publishing ticks until ctx is done. Tick failures are logged and
// never stop the publisher.
func (p *MetricPublisher) Start(ctx context.Context) error {
	p.log.Info("metric publisher started")
	defer p.log.Info("metric publisher stopped")

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-p.ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			p.Publish(ctx)
		}
	}
}

// Publish forwards the current queue snapshot in order and returns the number
// of records forwarded and deleted. The tick ends at the first failure so the
// remaining records keep their order for the next tick.
func (p *MetricPublisher) Publish(ctx context.Context) int {
	metrics, err := p.lister.List(ctx)
	if err != nil {
		p.recorder.StorageError("list")
		p.log.Error("failed to list queued metrics", zap.Error(err))
		return 0
	}

	p.log.Debug("publishing queued metrics", zap.Int("pending", len(metrics)))

	published := 0
	defer func() {
		p.recorder.SetQueueDepth(len(metrics) - published)
	}()

	for _, metric := range metrics {
		if ctx.Err() != nil {
			return published
		}

		id := metric.RecordID()

		if err := p.forwarder.Forward(ctx, metric); err != nil {
			p.recorder.ForwardError()
			p.log.Warn("failed to forward metric, will retry on next tick",
				zap.Int64("id", id),
				zap.String("name", metric.Name),
				zap.Error(err),
			)
			return published
		}
		p.recorder.MetricForwarded()

		// Once forwarded the delete is not interrupted by shutdown.
		if err := p.deleter.Delete(context.WithoutCancel(ctx), id); err != nil {
			p.recorder.StorageError("delete")
			p.log.Error("failed to delete forwarded metric",
				zap.Int64("id", id),
				zap.Error(err),
			)
			return published
		}

		published++
	}

	return published
}
