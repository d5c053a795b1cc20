// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/models"
)

// Broadcaster pushes a committed poll snapshot to the viewers of that poll.
type Broadcaster interface {
	Publish(ctx context.Context, pollID string, poll *models.Poll) error
}

// Subscriber is one live connection that can be placed in poll rooms.
// Send must not block; it reports false when the message was dropped.
type Subscriber interface {
	Send(msg []byte) bool
}

// Hub keeps a room of subscribers per poll id and delivers vote updates to
// them. Delivery is best-effort: a subscriber that cannot keep up misses
// messages without holding up the rest of the room.
//
// A poll's total vote count equals the number of committed votes, so it
// orders snapshots of that poll. Publish never delivers a snapshot whose
// total is not above the last one delivered for the poll.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[Subscriber]struct{}
	joined  map[Subscriber]map[string]struct{}
	metrics *metrics.Metrics

	// pubMu orders check-and-deliver in Publish. Lock it before mu.
	pubMu     sync.Mutex
	lastTotal map[string]int64
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:     make(map[string]map[Subscriber]struct{}),
		joined:    make(map[Subscriber]map[string]struct{}),
		metrics:   m,
		lastTotal: make(map[string]int64),
	}
}

// Subscribe adds sub to the poll's room. Joining twice is a no-op.
func (h *Hub) Subscribe(pollID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[pollID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[pollID] = room
	}
	room[sub] = struct{}{}

	polls, ok := h.joined[sub]
	if !ok {
		polls = make(map[string]struct{})
		h.joined[sub] = polls
	}
	polls[pollID] = struct{}{}
}

// Leave removes sub from a single room.
func (h *Hub) Leave(pollID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(pollID, sub)
}

// Unsubscribe removes sub from every room it joined.
func (h *Hub) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for pollID := range h.joined[sub] {
		h.leaveLocked(pollID, sub)
	}
	delete(h.joined, sub)
}

func (h *Hub) leaveLocked(pollID string, sub Subscriber) {
	if room, ok := h.rooms[pollID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, pollID)
		}
	}
	if polls, ok := h.joined[sub]; ok {
		delete(polls, pollID)
		if len(polls) == 0 {
			delete(h.joined, sub)
		}
	}
}

// Publish sends a voteUpdate carrying poll to everyone in the poll's room.
// Snapshots older than one already delivered for the poll are dropped.
func (h *Hub) Publish(_ context.Context, pollID string, poll *models.Poll) error {
	if poll == nil {
		return errors.New("nil poll snapshot")
	}
	msg, err := json.Marshal(models.ServerMessage{
		Type: models.MessageVoteUpdate,
		Poll: poll,
	})
	if err != nil {
		return fmt.Errorf("encode vote update: %w", err)
	}
	total := poll.TotalVotes()

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	if last, ok := h.lastTotal[pollID]; ok && total <= last {
		if h.metrics != nil {
			h.metrics.IncrementBroadcastsStale()
		}
		slog.Debug("dropped stale vote update", "poll_id", pollID, "total", total, "last_total", last)
		return nil
	}
	h.lastTotal[pollID] = total

	h.Deliver(pollID, msg)
	return nil
}

// Deliver fans an already encoded message out to the poll's room and
// returns how many subscribers accepted it.
func (h *Hub) Deliver(pollID string, msg []byte) int {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.rooms[pollID]))
	for sub := range h.rooms[pollID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	sent := 0
	for _, sub := range subs {
		if sub.Send(msg) {
			sent++
			continue
		}
		if h.metrics != nil {
			h.metrics.IncrementBroadcastsDropped()
		}
		slog.Debug("dropped vote update for slow subscriber", "poll_id", pollID)
	}
	if h.metrics != nil {
		h.metrics.AddBroadcastsSent(sent)
	}
	return sent
}

// RoomSize reports the number of subscribers watching a poll.
func (h *Hub) RoomSize(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pollID])
}
