// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/livepoll/models"
)

// Errors returned by every Store implementation, possibly wrapped.
var (
	ErrValidation    = errors.New("invalid poll")
	ErrNotFound      = errors.New("poll not found")
	ErrInvalidOption = errors.New("invalid option")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrStorage       = errors.New("storage failure")
)

// Limits on poll content
const (
	MinOptions        = 2
	MaxOptions        = 20
	MaxQuestionLength = 500
	MaxOptionLength   = 200
)

// Store persists polls, their vote counters and the identities that voted.
type Store interface {
	CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error)
	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	HasVoted(ctx context.Context, id, voterIdentity string) (bool, error)
	// ApplyVote records voterIdentity and increments the chosen option in one
	// atomic step. Nothing changes unless both succeed; an identity already
	// recorded yields ErrAlreadyVoted.
	ApplyVote(ctx context.Context, id string, optionIndex int, voterIdentity string) (*models.Poll, error)
	Ping(ctx context.Context) error
}

// normalizePoll trims and validates the content of a new poll.
func normalizePoll(question string, options []string) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: question is required", ErrValidation)
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return "", nil, fmt.Errorf("%w: question must be at most %d characters", ErrValidation, MaxQuestionLength)
	}
	if len(options) < MinOptions {
		return "", nil, fmt.Errorf("%w: at least %d options are required", ErrValidation, MinOptions)
	}
	if len(options) > MaxOptions {
		return "", nil, fmt.Errorf("%w: at most %d options are allowed", ErrValidation, MaxOptions)
	}

	out := make([]string, len(options))
	for i, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return "", nil, fmt.Errorf("%w: option %d is empty", ErrValidation, i+1)
		}
		if utf8.RuneCountInString(opt) > MaxOptionLength {
			return "", nil, fmt.Errorf("%w: option %d must be at most %d characters", ErrValidation, i+1, MaxOptionLength)
		}
		out[i] = opt
	}

	return question, out, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
