package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/replenishlabs/replenish-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// newHealthRouter serves liveness, readiness, and metrics for the worker.
func newHealthRouter(logg *logger.Logger, db pinger, redis pinger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true
		if err := db.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
			logg.Warn(req.Context(), "health check failing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(checks)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
