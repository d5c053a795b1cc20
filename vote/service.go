// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/metrics"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// Store is the part of store.Store the vote flow needs.
type Store interface {
	CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error)
	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	HasVoted(ctx context.Context, id, voterIdentity string) (bool, error)
	ApplyVote(ctx context.Context, id string, optionIndex int, voterIdentity string) (*models.Poll, error)
}

// Broadcaster delivers a committed snapshot to the viewers of a poll.
type Broadcaster interface {
	Publish(ctx context.Context, pollID string, poll *models.Poll) error
}

// lockStripes bounds the memory spent on per-poll locks. Polls hashing to
// the same stripe serialize their votes, which only costs throughput.
const lockStripes = 64

type Service struct {
	store       Store
	guard       *Guard
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger

	locks [lockStripes]sync.Mutex
}

type Option func(*Service)

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		s.broadcaster = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	s := &Service{
		store:  st,
		guard:  NewGuard(st),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	poll, err := s.store.CreatePoll(ctx, question, options)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementPollsCreated()
	}
	s.logger.Info("poll created", "poll_id", poll.ID, "options", len(poll.Options))
	return poll, nil
}

func (s *Service) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	return s.store.GetPoll(ctx, id)
}

// CastVote records one vote for identity and returns the poll as committed.
// Viewers are notified only after the vote is durable; a failed notification
// is logged and does not undo or fail the vote.
func (s *Service) CastVote(ctx context.Context, pollID string, optionIndex int, identity string) (*models.Poll, error) {
	if optionIndex < 0 {
		s.rejected(store.ErrInvalidOption)
		return nil, store.ErrInvalidOption
	}

	if err := s.guard.Check(ctx, pollID, identity); err != nil {
		s.rejected(err)
		return nil, err
	}

	mu := s.lockFor(pollID)
	mu.Lock()
	defer mu.Unlock()

	poll, err := s.store.ApplyVote(ctx, pollID, optionIndex, identity)
	if err != nil {
		s.rejected(err)
		if errors.Is(err, store.ErrStorage) {
			s.logger.Error("failed to apply vote", "poll_id", pollID, "error", err)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementVotesApplied()
	}
	s.logger.Debug("vote applied", "poll_id", pollID, "option", optionIndex)

	s.publish(ctx, poll)
	return poll, nil
}

func (s *Service) publish(ctx context.Context, poll *models.Poll) {
	if s.broadcaster == nil {
		return
	}
	// The vote is already committed; a cancelled request must not suppress
	// the update.
	if err := s.broadcaster.Publish(context.WithoutCancel(ctx), poll.ID, poll); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementBroadcastFailures()
		}
		s.logger.Warn("failed to broadcast vote update", "poll_id", poll.ID, "error", err)
	}
}

func (s *Service) lockFor(pollID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(pollID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) rejected(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementVotesRejected(rejectReason(err))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, store.ErrAlreadyVoted):
		return metrics.ReasonAlreadyVoted
	case errors.Is(err, store.ErrInvalidOption):
		return metrics.ReasonInvalidOption
	case errors.Is(err, store.ErrNotFound):
		return metrics.ReasonNotFound
	default:
		return metrics.ReasonStorage
	}
}

// Guard is the double-vote pre-check. It answers early for repeat voters;
// the store's conditional insert is what actually enforces one vote.
type Guard struct {
	store Store
}

func NewGuard(st Store) *Guard {
	return &Guard{store: st}
}

// Check returns store.ErrAlreadyVoted if identity has voted on the poll.
func (g *Guard) Check(ctx context.Context, pollID, identity string) error {
	voted, err := g.store.HasVoted(ctx, pollID, identity)
	if err != nil {
		return err
	}
	if voted {
		return fmt.Errorf("%w: identity already recorded for poll %s", store.ErrAlreadyVoted, pollID)
	}
	return nil
}
