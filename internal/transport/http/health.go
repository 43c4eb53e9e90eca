package http

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type CachePinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB    Pinger
	Cache CachePinger // Optional, can be nil
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "database": "ok", "redis": "disabled"}

	if err := h.DB.PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}
	if h.Cache != nil {
		body["redis"] = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			body["redis"] = "unreachable"
		}
	}
	writeJSON(w, status, body)
}
