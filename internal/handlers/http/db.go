package http

import (
	"context"
	"net/http"
)

//go:generate mockgen -source=db.go -destination=db_mock.go -package=http

// Pinger checks that the queue database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingHandler reports whether the queue database is reachable.
//
// @Summary Check queue database connectivity
// @Tags admin
// @Success 200 "OK"
// @Failure 500 "Internal Server Error"
// @Router /ping [get]
func NewPingHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
