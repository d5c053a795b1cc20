// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Realtime message types
const (
	// Client -> Server
	MessageJoinPoll  = "joinPoll"
	MessageLeavePoll = "leavePoll"

	// Server -> Client
	MessageVoteUpdate = "voteUpdate"
	MessageError      = "error"
)

// ClientMessage is sent by a viewer over the realtime channel.
type ClientMessage struct {
	Type   string `json:"type"`
	PollID string `json:"pollId"`
}

// ServerMessage is pushed to every member of a poll room.
type ServerMessage struct {
	Type    string `json:"type"`
	Poll    *Poll  `json:"poll,omitempty"`
	Message string `json:"message,omitempty"`
}
