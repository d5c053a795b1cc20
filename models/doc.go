// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options ([]string)
  - VoteRequest: optionIndex

# Domain Types

  - Poll: id, question, ordered options
  - Option: text and vote counter

Poll is also the response body for every poll endpoint:

	{"id": "...", "question": "Best color?", "options": [{"text": "Red", "votes": 0}]}

The set of voter identities is never part of Poll.

# Realtime Messages

Envelopes exchanged over the websocket channel:

	{"type": "joinPoll", "pollId": "..."}        client -> server
	{"type": "leavePoll", "pollId": "..."}       client -> server
	{"type": "voteUpdate", "poll": {...}}        server -> client
	{"type": "error", "message": "..."}          server -> client
*/
package models
