// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/livepoll/testutil"
)

func TestHealth(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedStatus int
	}{
		{"no dependencies", nil, http.StatusOK},
		{"all healthy", map[string]Pinger{"database": healthy, "redis": healthy}, http.StatusOK},
		{"unconfigured dependency skipped", map[string]Pinger{"database": healthy, "redis": nil}, http.StatusOK},
		{"database down", map[string]Pinger{"database": down}, http.StatusServiceUnavailable},
		{"redis down", map[string]Pinger{"database": healthy, "redis": down}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks)
			w := httptest.NewRecorder()

			handler.Health(w, httptest.NewRequest("GET", "/health", nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus == http.StatusOK && w.Body.String() != "OK" {
				t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
			}
		})
	}
}

func TestHealth_PingsStore(t *testing.T) {
	st := testutil.NewTestStore(t)
	handler := NewHealthHandler(map[string]Pinger{"database": st})
	w := httptest.NewRecorder()

	handler.Health(w, httptest.NewRequest("GET", "/health", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
}
