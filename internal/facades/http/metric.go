package http

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/compressor"
	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/hasher"
	"github.com/sbilibin2017/telemetry-sidecar/internal/facades"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

//go:generate mockgen -source=metric.go -destination=metric_mock.go -package=http

// UpdatePath is the collector endpoint that accepts one JSON metric.
const UpdatePath = "/update/"

// Compressor compresses request bodies.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Hasher signs request bodies.
type Hasher interface {
	Hash(data []byte) string
}

// MetricHTTPFacade forwards metrics to an HTTP collector, one request per metric.
type MetricHTTPFacade struct {
	client     *resty.Client
	compressor Compressor
	hasher     Hasher
	realIP     string
}

// Opt configures a MetricHTTPFacade.
type Opt func(*MetricHTTPFacade)

// WithCompressor gzips request bodies.
func WithCompressor(c Compressor) Opt {
	return func(f *MetricHTTPFacade) {
		f.compressor = c
	}
}

// WithHasher adds the HMAC header computed over the uncompressed body.
func WithHasher(h Hasher) Opt {
	return func(f *MetricHTTPFacade) {
		f.hasher = h
	}
}

// WithRealIP sets the X-Real-IP header checked by the collector's trusted subnet.
func WithRealIP(ip string) Opt {
	return func(f *MetricHTTPFacade) {
		f.realIP = ip
	}
}

// NewMetricHTTPFacade creates a facade on top of a configured resty client.
func NewMetricHTTPFacade(client *resty.Client, opts ...Opt) *MetricHTTPFacade {
	f := &MetricHTTPFacade{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward posts the metric as JSON. Any non-2xx response is an error, so the
// metric stays queued.
func (f *MetricHTTPFacade) Forward(ctx context.Context, metric *models.Metric) error {
	body, err := json.Marshal(metric)
	if err != nil {
		return fmt.Errorf("encode metric %d: %w", metric.RecordID(), err)
	}

	req := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	if f.hasher != nil {
		req.SetHeader(hasher.Header, f.hasher.Hash(body))
	}
	if f.realIP != "" {
		req.SetHeader("X-Real-IP", f.realIP)
	}

	if f.compressor != nil {
		body, err = f.compressor.Compress(body)
		if err != nil {
			return fmt.Errorf("compress metric %d: %w", metric.RecordID(), err)
		}
		req.SetHeader("Content-Encoding", compressor.Encoding)
	}

	resp, err := req.SetBody(body).Post(UpdatePath)
	if err != nil {
		return fmt.Errorf("forward metric %d: %w", metric.RecordID(), err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("forward metric %d: %w: %s", metric.RecordID(), facades.ErrUnexpectedStatus, resp.Status())
	}

	return nil
}
