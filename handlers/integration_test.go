// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/realtime"
	"github.com/danielhkuo/livepoll/testutil"
)

// TestFullVotingWorkflow tests the complete end-to-end workflow:
// 1. Create poll
// 2. Two viewers join the poll room over websocket
// 3. A voter votes and both viewers receive the committed counts
// 4. The same voter is refused and nobody is notified
// 5. A viewer that left receives nothing further
func TestFullVotingWorkflow(t *testing.T) {
	hub := realtime.NewHub(nil)
	svc, _ := newTestService(t, hub)
	cfg := testutil.GetTestConfig()
	cfg.TrustProxy = true

	pollHandler := NewPollHandler(svc)
	votingHandler := NewVotingHandler(svc, cfg)
	realtimeHandler := NewRealtimeHandler(hub, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /polls", pollHandler.CreatePoll)
	mux.HandleFunc("GET /polls/{id}", pollHandler.GetPoll)
	mux.HandleFunc("POST /polls/{id}/vote", votingHandler.CastVote)
	mux.HandleFunc("GET /ws", realtimeHandler.ServeWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Step 1: Create a poll
	body, _ := json.Marshal(models.CreatePollRequest{
		Question: "Favourite colour?",
		Options:  []string{"Red", "Blue"},
	})
	resp, err := http.Post(srv.URL+"/polls", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Step 1 - Create poll failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Step 1 - Expected 201, got %d", resp.StatusCode)
	}
	var poll models.Poll
	json.NewDecoder(resp.Body).Decode(&poll)
	resp.Body.Close()
	t.Logf("Step 1 - Created poll: %s", poll.ID)

	// Step 2: Two viewers join
	viewers := make([]*websocket.Conn, 2)
	for i := range viewers {
		ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		if err != nil {
			t.Fatalf("Step 2 - Viewer %d failed to connect: %v", i, err)
		}
		defer ws.Close()
		if err := ws.WriteJSON(models.ClientMessage{Type: models.MessageJoinPoll, PollID: poll.ID}); err != nil {
			t.Fatalf("Step 2 - Viewer %d failed to join: %v", i, err)
		}
		viewers[i] = ws
	}
	waitFor(t, func() bool { return hub.RoomSize(poll.ID) == 2 })

	// Step 3: Vote for Blue
	castVote := func(optionIndex int) int {
		body, _ := json.Marshal(models.VoteRequest{OptionIndex: &optionIndex})
		req, _ := http.NewRequest("POST", srv.URL+"/polls/"+poll.ID+"/vote", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "203.0.113.10")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Vote request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := castVote(1); status != http.StatusOK {
		t.Fatalf("Step 3 - Expected 200, got %d", status)
	}
	for i, ws := range viewers {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg models.ServerMessage
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("Step 3 - Viewer %d did not receive update: %v", i, err)
		}
		if msg.Type != models.MessageVoteUpdate || msg.Poll == nil {
			t.Fatalf("Step 3 - Viewer %d got unexpected message %+v", i, msg)
		}
		if msg.Poll.Options[0].Votes != 0 || msg.Poll.Options[1].Votes != 1 {
			t.Errorf("Step 3 - Viewer %d expected [0 1], got %+v", i, msg.Poll.Options)
		}
	}

	// Step 4: Same voter again
	if status := castVote(0); status != http.StatusForbidden {
		t.Fatalf("Step 4 - Expected 403, got %d", status)
	}

	// Step 5: Viewer 0 leaves; a new voter's update reaches viewer 1 only.
	// Had step 4 leaked a broadcast, viewer 1 would read it first.
	viewers[0].WriteJSON(models.ClientMessage{Type: models.MessageLeavePoll, PollID: poll.ID})
	waitFor(t, func() bool { return hub.RoomSize(poll.ID) == 1 })

	optionIndex := 0
	body, _ = json.Marshal(models.VoteRequest{OptionIndex: &optionIndex})
	req, _ := http.NewRequest("POST", srv.URL+"/polls/"+poll.ID+"/vote", bytes.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.11")
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("Step 5 - Second voter failed: %v", err)
	}
	resp.Body.Close()

	viewers[1].SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.ServerMessage
	if err := viewers[1].ReadJSON(&msg); err != nil {
		t.Fatalf("Step 5 - Viewer 1 did not receive update: %v", err)
	}
	if msg.Poll.TotalVotes() != 2 || msg.Poll.Options[0].Votes != 1 {
		t.Errorf("Step 5 - Expected [1 1], got %+v", msg.Poll.Options)
	}

	viewers[0].SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := viewers[0].ReadJSON(&msg); err == nil {
		t.Errorf("Step 5 - Viewer 0 left but received %+v", msg)
	}

	// Final state matches what the viewers saw
	getResp, err := http.Get(srv.URL + "/polls/" + poll.ID)
	if err != nil {
		t.Fatalf("Final fetch failed: %v", err)
	}
	defer getResp.Body.Close()
	var final models.Poll
	json.NewDecoder(getResp.Body).Decode(&final)
	if final.Options[0].Votes != 1 || final.Options[1].Votes != 1 {
		t.Errorf("Expected final counts [1 1], got %+v", final.Options)
	}
}
