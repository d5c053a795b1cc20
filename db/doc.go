// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Drivers

Two drivers are registered:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go, no cgo)

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections are capped at one, so writes are serialized by the pool.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: id, question, created_at
  - option: (poll_id, position) -> text, votes
  - poll_voter: (poll_id, voter_identity) -> option_position, voted_at

The primary key on poll_voter guarantees one vote per identity per poll,
regardless of races between application instances.
*/
package db
