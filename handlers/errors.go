// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/store"
)

// writeStoreError maps store sentinels to HTTP responses. Anything it does
// not recognise is a 500 carrying fallback as the message.
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		// "invalid poll: question is required" -> "question is required"
		msg := err.Error()
		if _, detail, ok := strings.Cut(msg, ": "); ok {
			msg = detail
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
	case errors.Is(err, store.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusForbidden, "You have already voted.")
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, store.ErrInvalidOption):
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
	default:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}
