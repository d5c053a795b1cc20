// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package pollclient talks to a livepoll server over HTTP and follows live
// results over its websocket. Errors from the server match ErrAlreadyVoted,
// ErrNotFound and ErrInvalid with errors.Is.
package pollclient
