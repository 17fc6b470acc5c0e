package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

//go:generate mockgen -source=queue.go -destination=queue_mock.go -package=http

// Counter returns the number of queued metrics.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Lister returns the queued metrics, oldest first.
type Lister interface {
	List(ctx context.Context) ([]*models.Metric, error)
}

// QueueSize is the response body of the queue size endpoint.
type QueueSize struct {
	Size int64 `json:"size"`
}

// NewQueueSizeHandler returns the number of metrics waiting to be forwarded.
//
// @Summary Queue depth
// @Tags admin
// @Produce json
// @Success 200 {object} QueueSize
// @Failure 500 "Internal Server Error"
// @Router /queue/size [get]
func NewQueueSizeHandler(counter Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := counter.Count(r.Context())
		if err != nil {
			logger.Log.Error("failed to count queued metrics", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, QueueSize{Size: n})
	}
}

// NewQueueListHandler returns the metrics waiting to be forwarded.
//
// @Summary Pending metrics
// @Tags admin
// @Produce json
// @Success 200 {array} models.Metric
// @Failure 500 "Internal Server Error"
// @Router /queue [get]
func NewQueueListHandler(lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := lister.List(r.Context())
		if err != nil {
			logger.Log.Error("failed to list queued metrics", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if metrics == nil {
			metrics = []*models.Metric{}
		}

		writeJSON(w, metrics)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", zap.Error(err))
	}
}
