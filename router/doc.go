// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the livepoll API.

# Route Registration

NewRouter builds the handler tree from its dependencies and wraps it in CORS:

	handler := router.NewRouter(router.Dependencies{
		Config: cfg,
		Votes:  votes,
		Hub:    hub,
	})

# Endpoints

Every poll route is also served under /api:

	POST /polls                 - Create poll
	GET  /polls/{id}            - Poll with live counts
	POST /polls/{id}/vote       - Cast a vote
	GET  /polls/{id}/results    - Counts with percentages
	GET  /polls/{id}/vote-count - Total votes

Operations:

	GET /ws      - Realtime vote updates (websocket)
	GET /health  - Dependency check
	GET /metrics - Prometheus metrics
	GET /        - Banner
*/
package router
