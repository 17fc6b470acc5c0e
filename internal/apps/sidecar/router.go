package sidecar

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/compressor"
	httpHandlers "github.com/sbilibin2017/telemetry-sidecar/internal/handlers/http"
	httpMiddlewares "github.com/sbilibin2017/telemetry-sidecar/internal/middlewares/http"
	dbRepo "github.com/sbilibin2017/telemetry-sidecar/internal/repositories/db"
)

// NewAdminRouter builds the admin HTTP handler: health, queue inspection
// and Prometheus metrics, restricted to trustedSubnet when it is set.
func NewAdminRouter(queue *dbRepo.MetricQueueRepository, gatherer prometheus.Gatherer, trustedSubnet string) (http.Handler, error) {
	trusted, err := httpMiddlewares.TrustedSubnetMiddleware(trustedSubnet)
	if err != nil {
		return nil, err
	}

	gz, err := compressor.NewCompressor()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(httpMiddlewares.LoggingMiddleware)
	r.Use(trusted)

	r.Get("/ping", httpHandlers.NewPingHandler(queue))
	r.Group(func(r chi.Router) {
		r.Use(httpMiddlewares.GzipMiddleware(gz))
		r.Get("/queue", httpHandlers.NewQueueListHandler(queue))
		r.Get("/queue/size", httpHandlers.NewQueueSizeHandler(queue))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r, nil
}
