// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes committed vote counts to connected viewers.

A Hub groups subscribers into one room per poll. Conn adapts a websocket
to the hub: clients send

	{"type": "joinPoll", "pollId": "..."}
	{"type": "leavePoll", "pollId": "..."}

and receive

	{"type": "voteUpdate", "poll": {...}}

whenever a vote on a joined poll commits. Delivery is at-most-once; a client
that reconnects should refetch the poll over HTTP.

With a single server the Hub is the Broadcaster. With several, RedisRelay
publishes through a Redis channel and every instance feeds its own Hub.
*/
package realtime
