// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package vote ties the store to the broadcaster: it checks for repeat
// voters, applies votes atomically and announces each committed result, in
// commit order, to the poll's viewers.
package vote
