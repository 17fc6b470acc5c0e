package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/compressor"
)

func newTestCompressor(t *testing.T) *compressor.Compressor {
	t.Helper()
	c, err := compressor.NewCompressor()
	require.NoError(t, err)
	return c
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestGzipMiddleware_CompressesJSON(t *testing.T) {
	c := newTestCompressor(t)
	handler := GzipMiddleware(c)(jsonHandler(http.StatusOK, `{"size":3}`))

	req := httptest.NewRequest(http.MethodGet, "/queue/size", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	body, err := c.Decompress(w.Body.Bytes())
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":3}`, string(body))
}

func TestGzipMiddleware_KeepsStatus(t *testing.T) {
	c := newTestCompressor(t)
	handler := GzipMiddleware(c)(jsonHandler(http.StatusServiceUnavailable, `{"error":"down"}`))

	req := httptest.NewRequest(http.MethodGet, "/queue/size", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGzipMiddleware_NoAcceptEncoding(t *testing.T) {
	handler := GzipMiddleware(newTestCompressor(t))(jsonHandler(http.StatusOK, `{"size":3}`))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue/size", nil))

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"size":3}`, w.Body.String())
}

func TestGzipMiddleware_SkipsOtherContentTypes(t *testing.T) {
	handler := GzipMiddleware(newTestCompressor(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{1, 2, 3})
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, []byte{1, 2, 3}, w.Body.Bytes())
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
}
