// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/vote"
)

type PollHandler struct {
	votes *vote.Service
}

func NewPollHandler(votes *vote.Service) *PollHandler {
	return &PollHandler{votes: votes}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.votes.CreatePoll(r.Context(), req.Question, req.Options)
	if err != nil {
		writeStoreError(w, err, "Failed to create poll")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
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

	middleware.JSONResponse(w, http.StatusOK, poll)
}
