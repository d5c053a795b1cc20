// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/livepoll/middleware"
)

// Pinger is a dependency the health check must be able to reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler checks every non-nil dependency in checks, keyed by the
// name reported on failure.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{checks: live}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.Error("health check failed", "dependency", name, "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
