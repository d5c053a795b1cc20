// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "math"

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// OptionIndex is a pointer so a missing field can be told apart from 0
type VoteRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

// Domain types

// Poll is the public snapshot of a poll. Voter identities are kept by the
// store and never leave it.
type Poll struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

type Option struct {
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// TotalVotes sums the counters of all options.
func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	return total
}

// Percentages returns the rounded share of each option, 0 everywhere while
// no votes have been cast.
func (p *Poll) Percentages() []int {
	out := make([]int, len(p.Options))
	total := p.TotalVotes()
	if total == 0 {
		return out
	}
	for i, opt := range p.Options {
		out[i] = int(math.Round(float64(opt.Votes) / float64(total) * 100))
	}
	return out
}

// Clone returns a deep copy so callers never share option slices.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = make([]Option, len(p.Options))
	copy(cp.Options, p.Options)
	return &cp
}

// Response types

// ResultsResponse summarises a poll for display
type ResultsResponse struct {
	PollID     string         `json:"pollId"`
	Question   string         `json:"question"`
	TotalVotes int64          `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
}

type OptionResult struct {
	Text    string `json:"text"`
	Votes   int64  `json:"votes"`
	Percent int    `json:"percent"`
}

// Results builds the display summary of the poll.
func (p *Poll) Results() ResultsResponse {
	pct := p.Percentages()
	out := ResultsResponse{
		PollID:     p.ID,
		Question:   p.Question,
		TotalVotes: p.TotalVotes(),
		Options:    make([]OptionResult, len(p.Options)),
	}
	for i, opt := range p.Options {
		out.Options[i] = OptionResult{Text: opt.Text, Votes: opt.Votes, Percent: pct[i]}
	}
	return out
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
