// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the livepoll API server.

livepoll runs single-question polls whose counts update live: every
committed vote is pushed to everyone watching the poll, and each network
origin may vote once per poll.

# Starting the Server

The server reads environment variables (and a .env file) or CLI flags:

	IDENTITY_SALT=... DATABASE_URL=livepoll.db go run .

Or with flags:

	go run . -p 5000 -t postgres -d "postgres://..." -identity-salt ...

# Configuration

Required settings:

  - IDENTITY_SALT (-identity-salt): Secret for hashing voter addresses
  - DATABASE_URL (-d): Connection string, unless DATABASE_TYPE is memory

Optional settings:

  - PORT (-p): Server port (default: 5000)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - REDIS_URL (-redis): Relay vote updates between instances
  - ALLOWED_ORIGINS (-origins): Comma separated CORS origins (default: any)
  - TRUST_PROXY (-trust-proxy): Read client IPs from forwarding headers
  - LOG_LEVEL, LOG_FORMAT: slog level and text|json output

# Architecture

  - handlers: HTTP request handlers (polls, voting, results, realtime, health)
  - router: Route definitions using Go 1.22+ routing
  - vote: Double-vote guard and vote application with ordered broadcast
  - store: Poll persistence (SQL or in-memory)
  - realtime: Websocket hub and Redis relay
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and wire message types
  - auth: Voter identity hashing
  - metrics: Prometheus collectors
  - db: Connection setup and schema
  - cliparse: Configuration parsing

cmd/pollctl is a command line client for the same API.
*/
package main
