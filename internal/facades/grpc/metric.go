package grpc

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

// ForwardMethod is the full name of the collector's unary forward RPC. The
// request is a google.protobuf.Struct and the response google.protobuf.Empty.
const ForwardMethod = "/telemetry.v1.Collector/Forward"

// MetricGRPCFacade forwards metrics to a gRPC collector.
type MetricGRPCFacade struct {
	conn grpc.ClientConnInterface
}

// NewMetricGRPCFacade creates a facade on top of an established client connection.
func NewMetricGRPCFacade(conn grpc.ClientConnInterface) *MetricGRPCFacade {
	return &MetricGRPCFacade{conn: conn}
}

// Forward sends one metric and returns nil once the collector acknowledged it.
func (f *MetricGRPCFacade) Forward(ctx context.Context, metric *models.Metric) error {
	req, err := ToStruct(metric)
	if err != nil {
		return fmt.Errorf("encode metric %d: %w", metric.RecordID(), err)
	}

	if err := f.conn.Invoke(ctx, ForwardMethod, req, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("forward metric %d: %w", metric.RecordID(), err)
	}

	return nil
}

// ToStruct converts a metric into its wire representation. Integers are sent
// as decimal strings since Struct numbers are doubles and lose precision
// above 2^53.
func ToStruct(metric *models.Metric) (*structpb.Struct, error) {
	tags := make([]any, 0, len(metric.Tags))
	for _, tag := range metric.Tags {
		tags = append(tags, map[string]any{
			"key":   tag.Key,
			"value": tag.Value,
		})
	}

	fields := map[string]any{
		"id":    strconv.FormatInt(metric.RecordID(), 10),
		"name":  metric.Name,
		"tags":  tags,
		"value": strconv.FormatUint(metric.Value, 10),
	}
	if metric.Field != "" {
		fields["field"] = metric.Field
	}
	if metric.Timestamp != nil {
		fields["timestamp"] = strconv.FormatUint(*metric.Timestamp, 10)
	}

	return structpb.NewStruct(fields)
}
