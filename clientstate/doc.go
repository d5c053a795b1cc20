// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package clientstate is the client's memory of its own votes.

It keeps the same two keys the browser client keeps in local storage:

	voted_polls  ["pollA", "pollB"]
	user_votes   {"pollA": 1, "pollB": 0}

The state only drives display. It is written after the server accepts a
vote and is never consulted to decide whether a vote may be sent; a client
that lost its state and votes again is refused by the server.
*/
package clientstate
