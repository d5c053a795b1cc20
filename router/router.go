// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/realtime"
	"github.com/danielhkuo/livepoll/vote"
)

// Dependencies are the services the routes are served from. Gatherer
// defaults to the global Prometheus registry.
type Dependencies struct {
	Config   cliparse.Config
	Votes    *vote.Service
	Hub      *realtime.Hub
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   map[string]handlers.Pinger
}

// Poll routes are served under both prefixes; browser clients use /api.
var pollPrefixes = []string{"", "/api"}

func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(deps.Votes)
	votingHandler := handlers.NewVotingHandler(deps.Votes, deps.Config)
	resultsHandler := handlers.NewResultsHandler(deps.Votes)
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, deps.Metrics, deps.Config.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	// Health and metrics
	mux.HandleFunc("GET /health", healthHandler.Health)
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, prefix := range pollPrefixes {
		// Polls
		mux.HandleFunc("POST "+prefix+"/polls", middleware.WithLogging(pollHandler.CreatePoll))
		mux.HandleFunc("GET "+prefix+"/polls/{id}", middleware.WithLogging(pollHandler.GetPoll))

		// Voting
		mux.HandleFunc("POST "+prefix+"/polls/{id}/vote", middleware.WithLogging(votingHandler.CastVote))

		// Results
		mux.HandleFunc("GET "+prefix+"/polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
		mux.HandleFunc("GET "+prefix+"/polls/{id}/vote-count", middleware.WithLogging(resultsHandler.GetVoteCount))
	}

	// Realtime
	mux.HandleFunc("GET /ws", realtimeHandler.ServeWS)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return middleware.CORS(deps.Config.AllowedOrigins)(mux)
}
