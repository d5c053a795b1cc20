// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/testutil"
	"github.com/danielhkuo/livepoll/vote"
)

func intPtr(i int) *int { return &i }

func voteRequest(pollID string, body interface{}, remoteAddr string) *http.Request {
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/vote", body, nil)
	req.SetPathValue("id", pollID)
	req.RemoteAddr = remoteAddr
	return req
}

func TestCastVote(t *testing.T) {
	svc, st := newTestService(t, nil)
	handler := NewVotingHandler(svc, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, st, "Best colour?", "Red", "Blue", "Green")

	// Rows run in order and share the poll, so later rows see earlier votes
	tests := []struct {
		name           string
		pollID         string
		body           interface{}
		remoteAddr     string
		expectedStatus int
		expectedMsg    string
		expectedVotes  []int64
	}{
		{
			name:           "first vote",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(1)},
			remoteAddr:     "203.0.113.1:4000",
			expectedStatus: http.StatusOK,
			expectedVotes:  []int64{0, 1, 0},
		},
		{
			name:           "same address different port",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(0)},
			remoteAddr:     "203.0.113.1:5000",
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "You have already voted.",
		},
		{
			name:           "second voter option zero",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(0)},
			remoteAddr:     "203.0.113.2:4000",
			expectedStatus: http.StatusOK,
			expectedVotes:  []int64{1, 1, 0},
		},
		{
			name:           "option out of range",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(3)},
			remoteAddr:     "203.0.113.3:4000",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Option not found",
		},
		{
			name:           "negative option",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(-1)},
			remoteAddr:     "203.0.113.3:4000",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing optionIndex",
			pollID:         poll.ID,
			body:           map[string]string{},
			remoteAddr:     "203.0.113.3:4000",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "optionIndex is required",
		},
		{
			name:           "unknown poll",
			pollID:         "missing",
			body:           models.VoteRequest{OptionIndex: intPtr(0)},
			remoteAddr:     "203.0.113.3:4000",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Poll not found",
		},
		{
			name:           "no remote address",
			pollID:         poll.ID,
			body:           models.VoteRequest{OptionIndex: intPtr(0)},
			remoteAddr:     "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handler.CastVote(w, voteRequest(tt.pollID, tt.body, tt.remoteAddr))

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var got models.Poll
				testutil.AssertJSON(t, w, &got)
				for i, want := range tt.expectedVotes {
					if got.Options[i].Votes != want {
						t.Errorf("Option %d: expected %d votes, got %d", i, want, got.Options[i].Votes)
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

	// Rejected votes never moved a counter
	got, err := st.GetPoll(t.Context(), poll.ID)
	if err != nil {
		t.Fatalf("Failed to reload poll: %v", err)
	}
	if got.TotalVotes() != 2 {
		t.Errorf("Expected 2 votes in total, got %d", got.TotalVotes())
	}
}

func TestCastVote_InvalidJSON(t *testing.T) {
	svc, st := newTestService(t, nil)
	handler := NewVotingHandler(svc, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, st, "Tea?")

	req := httptest.NewRequest("POST", "/polls/"+poll.ID+"/vote", strings.NewReader(`{"optionIndex":`))
	req.SetPathValue("id", poll.ID)
	w := httptest.NewRecorder()

	handler.CastVote(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCastVote_ProxyHeaders(t *testing.T) {
	tests := []struct {
		name           string
		trustProxy     bool
		expectedSecond int
	}{
		// Both requests come from the same proxy; only a trusted proxy's
		// headers tell the two clients apart.
		{"trusted proxy separates clients", true, http.StatusOK},
		{"untrusted proxy collapses to one identity", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t, nil)
			cfg := testutil.GetTestConfig()
			cfg.TrustProxy = tt.trustProxy
			handler := NewVotingHandler(svc, cfg)
			poll := testutil.CreateTestPoll(t, st, "Proxy?")

			for i, client := range []string{"198.51.100.7", "198.51.100.8"} {
				req := voteRequest(poll.ID, models.VoteRequest{OptionIndex: intPtr(0)}, "10.0.0.1:443")
				req.Header.Set("X-Forwarded-For", client)
				w := httptest.NewRecorder()

				handler.CastVote(w, req)

				want := http.StatusOK
				if i == 1 {
					want = tt.expectedSecond
				}
				testutil.AssertStatus(t, w, want)
			}
		})
	}
}

func TestCastVote_IPv4MappedAddressIsSameVoter(t *testing.T) {
	svc, st := newTestService(t, nil)
	handler := NewVotingHandler(svc, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, st, "Mapped?")

	w := httptest.NewRecorder()
	handler.CastVote(w, voteRequest(poll.ID, models.VoteRequest{OptionIndex: intPtr(0)}, "192.0.2.9:1000"))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	handler.CastVote(w, voteRequest(poll.ID, models.VoteRequest{OptionIndex: intPtr(1)}, "[::ffff:192.0.2.9]:1000"))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestCastVote_StorageFailure(t *testing.T) {
	tests := []struct {
		name string
		stmt string
	}{
		{"voter table missing", `DROP TABLE poll_voter`},
		{"increment fails after voter insert", `CREATE TRIGGER block_increment BEFORE UPDATE ON option
			BEGIN SELECT RAISE(ABORT, 'increment blocked'); END`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.SetupTestDB(t)
			st := store.NewSQLStore(conn, cliparse.DatabaseSQLite)
			svc, err := vote.New(st)
			if err != nil {
				t.Fatalf("Failed to create vote service: %v", err)
			}
			handler := NewVotingHandler(svc, testutil.GetTestConfig())
			poll := testutil.CreateTestPoll(t, st, "Best color?", "Red", "Blue")

			if _, err := conn.Exec(tt.stmt); err != nil {
				t.Fatalf("Failed to break storage: %v", err)
			}

			w := httptest.NewRecorder()
			handler.CastVote(w, voteRequest(poll.ID, models.VoteRequest{OptionIndex: intPtr(1)}, "203.0.113.1:4000"))

			testutil.AssertStatus(t, w, http.StatusInternalServerError)
			var errResp models.ErrorResponse
			testutil.AssertJSON(t, w, &errResp)
			if errResp.Message != "Vote failed" {
				t.Errorf("Expected message %q, got %q", "Vote failed", errResp.Message)
			}

			got, err := st.GetPoll(t.Context(), poll.ID)
			if err != nil {
				t.Fatalf("Failed to reload poll: %v", err)
			}
			if got.TotalVotes() != 0 {
				t.Errorf("Expected no votes after a failed vote, got %v", got.Options)
			}
		})
	}
}
