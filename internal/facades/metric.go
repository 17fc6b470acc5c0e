package facades

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

// ErrUnexpectedStatus is returned when the collector rejects a metric.
var ErrUnexpectedStatus = errors.New("unexpected collector response status")

// MetricLogFacade is the sink used when no collector is configured: every
// metric is written to the log and acknowledged.
type MetricLogFacade struct {
	log *zap.Logger
}

// NewMetricLogFacade creates a log sink. A nil logger falls back to the global one.
func NewMetricLogFacade(log *zap.Logger) *MetricLogFacade {
	if log == nil {
		log = logger.Log
	}
	return &MetricLogFacade{log: log}
}

// Forward logs the metric and always succeeds unless ctx is done.
func (f *MetricLogFacade) Forward(ctx context.Context, metric *models.Metric) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int64("id", metric.RecordID()),
		zap.String("name", metric.Name),
		zap.Uint64("value", metric.Value),
	}
	if metric.Field != "" {
		fields = append(fields, zap.String("field", metric.Field))
	}
	if len(metric.Tags) > 0 {
		fields = append(fields, zap.Any("tags", metric.Tags))
	}
	if metric.Timestamp != nil {
		fields = append(fields, zap.Uint64("timestamp", *metric.Timestamp))
	}

	f.log.Info("metric published", fields...)
	return nil
}
