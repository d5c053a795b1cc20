// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/realtime"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewRealtimeHandler accepts websocket upgrades from allowedOrigins, or from
// any origin when the list is empty.
func NewRealtimeHandler(hub *realtime.Hub, m *metrics.Metrics, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{
		hub:     hub,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeWS handles GET /ws
func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	slog.Info("realtime client connected", "conn_id", connID, "remote", r.RemoteAddr)
	if h.metrics != nil {
		h.metrics.ConnectionOpened()
	}

	realtime.NewConn(connID, ws, h.hub).Serve()

	if h.metrics != nil {
		h.metrics.ConnectionClosed()
	}
	slog.Info("realtime client disconnected", "conn_id", connID)
}
