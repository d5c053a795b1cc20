// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the livepoll API.

# Handler Types

Each handler is a struct built from its dependencies:

  - PollHandler: create and fetch polls
  - VotingHandler: cast votes
  - ResultsHandler: percentage summaries and vote counts
  - RealtimeHandler: websocket upgrades onto the realtime hub
  - HealthHandler: dependency checks

	pollHandler := handlers.NewPollHandler(votes)
	votingHandler := handlers.NewVotingHandler(votes, cfg)

# Voting

	POST /polls/{id}/vote  {"optionIndex": 1}

The voter is identified by client IP, hashed with the configured salt. A
second vote from the same identity is answered with 403 and changes nothing.

# Errors

Store errors are translated to status codes in one place, writeStoreError:

	ErrValidation    -> 400
	ErrAlreadyVoted  -> 403
	ErrNotFound      -> 404
	ErrInvalidOption -> 404
	anything else    -> 500
*/
package handlers
