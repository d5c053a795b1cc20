// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/models"
)

type memoryPoll struct {
	poll   models.Poll
	voters map[string]int // identity -> chosen option
}

// MemoryStore keeps polls in process memory. It backs the "memory" database
// type and unit tests; everything is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	polls map[string]*memoryPoll
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{polls: make(map[string]*memoryPoll)}
}

func (s *MemoryStore) CreatePoll(_ context.Context, question string, options []string) (*models.Poll, error) {
	question, texts, err := normalizePoll(question, options)
	if err != nil {
		return nil, err
	}

	p := &memoryPoll{
		poll: models.Poll{
			ID:       uuid.NewString(),
			Question: question,
			Options:  make([]models.Option, len(texts)),
		},
		voters: make(map[string]int),
	}
	for i, text := range texts {
		p.poll.Options[i] = models.Option{Text: text}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[p.poll.ID] = p

	return p.poll.Clone(), nil
}

func (s *MemoryStore) GetPoll(_ context.Context, id string) (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.poll.Clone(), nil
}

func (s *MemoryStore) HasVoted(_ context.Context, id, voterIdentity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	if !ok {
		return false, ErrNotFound
	}
	_, voted := p.voters[voterIdentity]
	return voted, nil
}

// ApplyVote holds the write lock across the check and the update.
func (s *MemoryStore) ApplyVote(_ context.Context, id string, optionIndex int, voterIdentity string) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[id]
	if !ok {
		return nil, ErrNotFound
	}
	if optionIndex < 0 || optionIndex >= len(p.poll.Options) {
		return nil, ErrInvalidOption
	}
	if _, voted := p.voters[voterIdentity]; voted {
		return nil, ErrAlreadyVoted
	}

	p.voters[voterIdentity] = optionIndex
	p.poll.Options[optionIndex].Votes++

	return p.poll.Clone(), nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// VoterCount reports how many identities voted on a poll.
func (s *MemoryStore) VoterCount(_ context.Context, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	if !ok {
		return 0, ErrNotFound
	}
	return len(p.voters), nil
}
