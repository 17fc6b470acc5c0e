package socket

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/lineprotocol"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
	"github.com/sbilibin2017/telemetry-sidecar/internal/telemetry"
)

//go:generate mockgen -source=metric.go -destination=metric_mock.go -package=socket

// DefaultMaxLineLength is the longest line, newline included, the listener
// buffers. Longer lines are dropped as malformed.
const DefaultMaxLineLength = 64 * 1024

// Inserter stores parsed metrics in the durable queue.
type Inserter interface {
	// Insert persists the metric and returns its record id.
	Insert(ctx context.Context, metric *models.Metric) (int64, error)
}

// MetricListener accepts producers on a unix domain socket and queues every
// line that parses as a metric. Connections are served one at a time.
type MetricListener struct {
	path     string
	inserter Inserter
	log      *zap.Logger
	recorder *telemetry.Recorder
	maxLine  int

	mu sync.Mutex
	ln net.Listener
}

// Opt configures a MetricListener.
type Opt func(*MetricListener)

// WithLogger sets the listener logger.
func WithLogger(log *zap.Logger) Opt {
	return func(l *MetricListener) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRecorder sets the pipeline metrics recorder.
func WithRecorder(r *telemetry.Recorder) Opt {
	return func(l *MetricListener) {
		l.recorder = r
	}
}

// WithMaxLineLength limits the length of a single line. Non-positive values
// keep DefaultMaxLineLength.
func WithMaxLineLength(n int) Opt {
	return func(l *MetricListener) {
		if n > 0 {
			l.maxLine = n
		}
	}
}

// NewMetricListener creates a listener for the socket at path.
func NewMetricListener(path string, inserter Inserter, opts ...Opt) *MetricListener {
	l := &MetricListener{
		path:     path,
		inserter: inserter,
		log:      logger.Log,
		maxLine:  DefaultMaxLineLength,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Bind removes a stale socket file left by a previous run and starts
// listening on path.
func (l *MetricListener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln != nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket %s: %w", l.path, err)
	}

	ln, err := net.Listen("unix", l.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", l.path, err)
	}
	l.ln = ln

	l.log.Info("listening for metrics", zap.String("socket", l.path))
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (l *MetricListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Start serves connections until ctx is done. It binds the socket first if
// Bind was not called. Accept failures other than shutdown are returned.
func (l *MetricListener) Start(ctx context.Context) error {
	if err := l.Bind(); err != nil {
		return err
	}

	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	defer func() {
		ln.Close()
		os.Remove(l.path)

		l.mu.Lock()
		l.ln = nil
		l.mu.Unlock()

		l.log.Info("metric listener stopped", zap.String("socket", l.path))
	}()

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept on %s: %w", l.path, err)
		}

		l.serve(ctx, conn)
	}
}

// serve reads conn line by line until EOF, a read error or cancellation.
func (l *MetricListener) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	l.log.Info("producer connected")

	reader := bufio.NewReaderSize(conn, l.maxLine)
	for {
		chunk, err := reader.ReadSlice('\n')
		if ctx.Err() != nil {
			return
		}

		switch {
		case err == nil:
			l.handleLine(ctx, string(chunk))
		case errors.Is(err, bufio.ErrBufferFull):
			l.rejectLine()
			if err := skipLine(reader); err != nil {
				l.closed(ctx, err)
				return
			}
		default:
			if errors.Is(err, io.EOF) && len(chunk) > 0 {
				l.handleLine(ctx, string(chunk))
			}
			l.closed(ctx, err)
			return
		}
	}
}

// skipLine discards input up to and including the next newline.
func skipLine(reader *bufio.Reader) error {
	for {
		_, err := reader.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func (l *MetricListener) closed(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
	case errors.Is(err, io.EOF):
		l.log.Info("producer disconnected")
	default:
		l.log.Warn("read from producer failed", zap.Error(err))
	}
}

// rejectLine reports a line that exceeded the length limit.
func (l *MetricListener) rejectLine() {
	kind := lineprotocol.Kind(lineprotocol.ErrMalformedLine)

	l.recorder.LineReceived()
	l.recorder.ParseError(kind)
	l.log.Warn("failed to parse metric",
		zap.Int("max_length", l.maxLine),
		zap.String("kind", kind),
		zap.Error(lineprotocol.ErrMalformedLine),
	)
}

func (l *MetricListener) handleLine(ctx context.Context, line string) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	l.recorder.LineReceived()

	metric, err := lineprotocol.Parse(line)
	if err != nil {
		l.recorder.ParseError(lineprotocol.Kind(err))
		l.log.Warn("failed to parse metric",
			zap.String("line", line),
			zap.String("kind", lineprotocol.Kind(err)),
			zap.Error(err),
		)
		return
	}

	// The insert is not interrupted by shutdown so it either commits or fails as a whole.
	id, err := l.inserter.Insert(context.WithoutCancel(ctx), metric)
	if err != nil {
		l.recorder.StorageError("insert")
		l.log.Error("failed to queue metric",
			zap.String("name", metric.Name),
			zap.Error(err),
		)
		return
	}

	l.recorder.MetricQueued()
	l.log.Debug("metric queued", zap.Int64("id", id), zap.String("name", metric.Name))
}
