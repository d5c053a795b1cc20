// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package clientstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Keys shared with the browser client's local storage
const (
	KeyVotedPolls = "voted_polls"
	KeyUserVotes  = "user_votes"
)

// KV is a string key-value store, the shape of browser local storage.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// State remembers which polls this client voted on and what it chose. It is
// a display cache only; the server decides whether a vote counts.
type State struct {
	mu sync.Mutex
	kv KV
}

func New(kv KV) *State {
	return &State{kv: kv}
}

// Lookup reports whether pollID was recorded as voted and, if known, the
// chosen option. Missing or unreadable data reads as not voted.
func (s *State) Lookup(pollID string) (hasVoted bool, chosen *int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voted, err := s.votedPolls()
	if err != nil {
		slog.Debug("ignoring unreadable vote state", "key", KeyVotedPolls, "error", err)
		return false, nil
	}
	if !slices.Contains(voted, pollID) {
		return false, nil
	}

	choices, err := s.userVotes()
	if err != nil {
		slog.Debug("ignoring unreadable vote state", "key", KeyUserVotes, "error", err)
		return true, nil
	}
	if idx, ok := choices[pollID]; ok {
		return true, &idx
	}
	return true, nil
}

// Record stores a vote the server accepted. Call it only after a
// successful vote response.
func (s *State) Record(pollID string, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unreadable entries are overwritten rather than blocking the record
	voted, err := s.votedPolls()
	if err != nil {
		voted = nil
	}
	if !slices.Contains(voted, pollID) {
		voted = append(voted, pollID)
		if err := s.setJSON(KeyVotedPolls, voted); err != nil {
			return err
		}
	}

	choices, err := s.userVotes()
	if err != nil || choices == nil {
		choices = make(map[string]int)
	}
	choices[pollID] = optionIndex
	return s.setJSON(KeyUserVotes, choices)
}

func (s *State) votedPolls() ([]string, error) {
	var out []string
	if err := s.getJSON(KeyVotedPolls, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *State) userVotes() (map[string]int, error) {
	out := make(map[string]int)
	if err := s.getJSON(KeyUserVotes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *State) getJSON(key string, v any) error {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *State) setJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
