// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/realtime"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/testutil"
	"github.com/danielhkuo/livepoll/vote"
)

// newTestService wires a vote service over a fresh SQLite store, publishing
// to hub when one is given.
func newTestService(t *testing.T, hub *realtime.Hub) (*vote.Service, store.Store) {
	t.Helper()
	st := testutil.NewTestStore(t)
	opts := []vote.Option{}
	if hub != nil {
		opts = append(opts, vote.WithBroadcaster(hub))
	}
	svc, err := vote.New(st, opts...)
	if err != nil {
		t.Fatalf("Failed to create vote service: %v", err)
	}
	return svc, st
}

func TestCreatePoll(t *testing.T) {
	svc, _ := newTestService(t, nil)
	handler := NewPollHandler(svc)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "valid poll",
			body: models.CreatePollRequest{
				Question: "Best colour?",
				Options:  []string{"Red", "Blue"},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "options are trimmed",
			body: models.CreatePollRequest{
				Question: "  Lunch?  ",
				Options:  []string{" Pizza ", "Sushi", "Tacos"},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing question",
			body:           models.CreatePollRequest{Options: []string{"Red", "Blue"}},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "question is required",
		},
		{
			name:           "one option",
			body:           models.CreatePollRequest{Question: "Only one?", Options: []string{"Yes"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no options",
			body:           models.CreatePollRequest{Question: "Nothing?"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank option",
			body:           models.CreatePollRequest{Question: "Blank?", Options: []string{"Red", "   "}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "question too long",
			body:           models.CreatePollRequest{Question: strings.Repeat("q", store.MaxQuestionLength+1), Options: []string{"a", "b"}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls", tt.body, nil)
			w := httptest.NewRecorder()

			handler.CreatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var poll models.Poll
				testutil.AssertJSON(t, w, &poll)
				if poll.ID == "" {
					t.Error("Expected poll id to be set")
				}
				for _, opt := range poll.Options {
					if opt.Votes != 0 {
						t.Errorf("Expected new option to start at 0 votes, got %d", opt.Votes)
					}
					if opt.Text != strings.TrimSpace(opt.Text) {
						t.Errorf("Expected trimmed option text, got %q", opt.Text)
					}
				}
				return
			}

			var errResp models.ErrorResponse
			testutil.AssertJSON(t, w, &errResp)
			if tt.expectedMsg != "" && errResp.Message != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, errResp.Message)
			}
		})
	}
}

func TestCreatePoll_InvalidJSON(t *testing.T) {
	svc, _ := newTestService(t, nil)
	handler := NewPollHandler(svc)

	req := httptest.NewRequest("POST", "/polls", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetPoll(t *testing.T) {
	svc, st := newTestService(t, nil)
	handler := NewPollHandler(svc)
	poll := testutil.CreateTestPoll(t, st, "Favourite season?", "Spring", "Summer", "Autumn", "Winter")

	tests := []struct {
		name           string
		pollID         string
		expectedStatus int
	}{
		{"existing poll", poll.ID, http.StatusOK},
		{"unknown poll", "does-not-exist", http.StatusNotFound},
		{"empty id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls/"+tt.pollID, nil)
			req.SetPathValue("id", tt.pollID)
			w := httptest.NewRecorder()

			handler.GetPoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var got models.Poll
			testutil.AssertJSON(t, w, &got)
			if got.ID != poll.ID || got.Question != "Favourite season?" {
				t.Errorf("Unexpected poll: %+v", got)
			}
			if len(got.Options) != 4 || got.Options[2].Text != "Autumn" {
				t.Errorf("Expected options in creation order, got %+v", got.Options)
			}
		})
	}
}

func TestGetPoll_DoesNotExposeVoters(t *testing.T) {
	svc, st := newTestService(t, nil)
	handler := NewPollHandler(svc)
	poll := testutil.CreateTestPoll(t, st, "Secret ballot?")

	if _, err := svc.CastVote(t.Context(), poll.ID, 0, "identity-hash"); err != nil {
		t.Fatalf("Failed to vote: %v", err)
	}

	req := httptest.NewRequest("GET", "/polls/"+poll.ID, nil)
	req.SetPathValue("id", poll.ID)
	w := httptest.NewRecorder()

	handler.GetPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "identity-hash") {
		t.Error("Poll JSON must not contain voter identities")
	}
}
