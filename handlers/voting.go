// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/vote"
)

type VotingHandler struct {
	votes *vote.Service
	cfg   cliparse.Config
}

func NewVotingHandler(votes *vote.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{votes: votes, cfg: cfg}
}

// CastVote handles POST /polls/{id}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionIndex == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "optionIndex is required")
		return
	}

	identity, err := auth.VoterIdentity(middleware.GetClientIP(r, h.cfg.TrustProxy), h.cfg.IdentitySalt)
	if err != nil {
		slog.Warn("could not derive voter identity", "remote", r.RemoteAddr, "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Could not identify voter")
		return
	}

	poll, err := h.votes.CastVote(r.Context(), pollID, *req.OptionIndex, identity)
	if err != nil {
		writeStoreError(w, err, "Vote failed")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}
