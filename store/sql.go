// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLStore persists polls in PostgreSQL or SQLite using the schema from
// package db.
type SQLStore struct {
	db *sql.DB
	// lockPoll is appended to the poll lookup inside ApplyVote. PostgreSQL
	// takes a row lock; SQLite already runs a single writer.
	lockPoll string
}

func NewSQLStore(db *sql.DB, dbType string) *SQLStore {
	s := &SQLStore{db: db}
	if dbType == cliparse.DatabasePostgres {
		s.lockPoll = " FOR UPDATE"
	}
	return s
}

func (s *SQLStore) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	question, texts, err := normalizePoll(question, options)
	if err != nil {
		return nil, err
	}

	poll := &models.Poll{
		ID:       uuid.NewString(),
		Question: question,
		Options:  make([]models.Option, len(texts)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, question)
		VALUES ($1, $2)
	`, poll.ID, poll.Question)
	if err != nil {
		return nil, storageError("insert poll", err)
	}

	for i, text := range texts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO option (poll_id, position, text, votes)
			VALUES ($1, $2, $3, 0)
		`, poll.ID, i, text)
		if err != nil {
			return nil, storageError("insert option", err)
		}
		poll.Options[i] = models.Option{Text: text}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError("commit poll", err)
	}

	return poll, nil
}

func (s *SQLStore) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	return readPoll(ctx, s.db, id)
}

func (s *SQLStore) HasVoted(ctx context.Context, id, voterIdentity string) (bool, error) {
	var pollExists, voted bool
	err := s.db.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM poll WHERE id = $1),
			EXISTS(SELECT 1 FROM poll_voter WHERE poll_id = $1 AND voter_identity = $2)
	`, id, voterIdentity).Scan(&pollExists, &voted)
	if err != nil {
		return false, storageError("query voter", err)
	}
	if !pollExists {
		return false, ErrNotFound
	}
	return voted, nil
}

// ApplyVote runs the conditional insert of the voter and the counter
// increment in one transaction. The poll_voter primary key makes the insert
// a no-op for a repeated identity, which aborts the vote.
func (s *SQLStore) ApplyVote(ctx context.Context, id string, optionIndex int, voterIdentity string) (*models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer tx.Rollback()

	var pollID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM poll WHERE id = $1`+s.lockPoll, id).Scan(&pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("lock poll", err)
	}

	var optionCount int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM option WHERE poll_id = $1`, id).Scan(&optionCount)
	if err != nil {
		return nil, storageError("count options", err)
	}
	if optionIndex < 0 || optionIndex >= optionCount {
		return nil, ErrInvalidOption
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO poll_voter (poll_id, voter_identity, option_position)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, voter_identity) DO NOTHING
	`, id, voterIdentity, optionIndex)
	if err != nil {
		return nil, storageError("insert voter", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, storageError("insert voter", err)
	}
	if inserted == 0 {
		return nil, ErrAlreadyVoted
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE option SET votes = votes + 1
		WHERE poll_id = $1 AND position = $2
	`, id, optionIndex)
	if err != nil {
		return nil, storageError("increment option", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		slog.Error("option increment touched unexpected rows", "poll_id", id, "option", optionIndex, "rows", n, "error", err)
		return nil, storageError("increment option", errors.New("option row missing"))
	}

	poll, err := readPoll(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError("commit vote", err)
	}

	return poll, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// VoterCount reports how many identities voted on a poll.
func (s *SQLStore) VoterCount(ctx context.Context, id string) (int, error) {
	if _, err := readPoll(ctx, s.db, id); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll_voter WHERE poll_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, storageError("count voters", err)
	}
	return n, nil
}

func readPoll(ctx context.Context, q querier, id string) (*models.Poll, error) {
	poll := &models.Poll{ID: id}
	err := q.QueryRowContext(ctx, `SELECT question FROM poll WHERE id = $1`, id).Scan(&poll.Question)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("query poll", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT text, votes
		FROM option
		WHERE poll_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, storageError("query options", err)
	}
	defer rows.Close()

	poll.Options = []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.Text, &opt.Votes); err != nil {
			return nil, storageError("scan option", err)
		}
		poll.Options = append(poll.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate options", err)
	}

	return poll, nil
}
