// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists polls and enforces one vote per identity.

SQLStore serves PostgreSQL and SQLite; MemoryStore keeps everything in
process. Both return the sentinel errors declared in store.go, so callers
match with errors.Is:

	poll, err := s.ApplyVote(ctx, pollID, 1, identity)
	if errors.Is(err, store.ErrAlreadyVoted) {
		...
	}
*/
package store
