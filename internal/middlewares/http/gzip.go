package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/compressor"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
)

// GzipMiddleware compresses JSON and plain text responses for clients that
// accept gzip. Other content types are passed through unchanged.
func GzipMiddleware(c *compressor.Compressor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), compressor.Encoding) {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipBufferResponseWriter(w)
			next.ServeHTTP(gzw, r)
			if err := gzw.flush(c); err != nil {
				logger.Log.Error("failed to write compressed response", zap.Error(err))
			}
		})
	}
}

// gzipBufferResponseWriter buffers the response so it can be compressed as a whole.
type gzipBufferResponseWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func newGzipBufferResponseWriter(w http.ResponseWriter) *gzipBufferResponseWriter {
	return &gzipBufferResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *gzipBufferResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}

func (w *gzipBufferResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *gzipBufferResponseWriter) flush(c *compressor.Compressor) error {
	body := w.buf.Bytes()

	contentType := strings.ToLower(w.Header().Get("Content-Type"))
	if strings.Contains(contentType, "application/json") || strings.Contains(contentType, "text/plain") {
		compressed, err := c.Compress(body)
		if err != nil {
			return err
		}
		body = compressed
		w.Header().Set("Content-Encoding", compressor.Encoding)
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(w.statusCode)
	_, err := w.ResponseWriter.Write(body)
	return err
}
