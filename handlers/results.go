// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/vote"
)

type ResultsHandler struct {
	votes *vote.Service
}

func NewResultsHandler(votes *vote.Service) *ResultsHandler {
	return &ResultsHandler{votes: votes}
}

// GetResults handles GET /polls/{id}/results
// Returns counts with rounded percentages; results are never sealed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := h.votes.GetPoll(r.Context(), pollID)
	if err != nil {
		writeStoreError(w, err, "Error fetching results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll.Results())
}

// GetVoteCount handles GET /polls/{id}/vote-count
func (h *ResultsHandler) GetVoteCount(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := h.votes.GetPoll(r.Context(), pollID)
	if err != nil {
		writeStoreError(w, err, "Error fetching poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]int64{
		"voteCount": poll.TotalVotes(),
	})
}
