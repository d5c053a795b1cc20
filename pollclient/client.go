// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/clientstate"
	"github.com/danielhkuo/livepoll/models"
)

var (
	ErrAlreadyVoted = errors.New("already voted")
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid request")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusForbidden:
		return ErrAlreadyVoted
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalid
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	state   *clientstate.State
	dialer  *websocket.Dialer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithState remembers accepted votes in state.
func WithState(state *clientstate.State) Option {
	return func(c *Client) {
		c.state = state
	}
}

// New returns a client for the server at baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	var poll models.Poll
	req := models.CreatePollRequest{Question: question, Options: options}
	if err := c.do(ctx, http.MethodPost, "/polls", req, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (c *Client) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	var poll models.Poll
	if err := c.do(ctx, http.MethodGet, "/polls/"+url.PathEscape(id), nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// Vote always asks the server, whatever the local state says. Local state
// is updated only when the server accepts the vote.
func (c *Client) Vote(ctx context.Context, id string, optionIndex int) (*models.Poll, error) {
	var poll models.Poll
	req := models.VoteRequest{OptionIndex: &optionIndex}
	if err := c.do(ctx, http.MethodPost, "/polls/"+url.PathEscape(id)+"/vote", req, &poll); err != nil {
		return nil, err
	}
	if c.state != nil {
		if err := c.state.Record(id, optionIndex); err != nil {
			// The vote counted; only the local memory of it is lost
			return &poll, fmt.Errorf("vote recorded by server but not saved locally: %w", err)
		}
	}
	return &poll, nil
}

// LocalVote reports what this client remembers about its vote on id.
func (c *Client) LocalVote(id string) (hasVoted bool, chosen *int) {
	if c.state == nil {
		return false, nil
	}
	return c.state.Lookup(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Watch joins the poll's room and calls fn with every vote update until
// ctx is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, id string, fn func(*models.Poll)) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect realtime: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	if err := conn.WriteJSON(models.ClientMessage{Type: models.MessageJoinPoll, PollID: id}); err != nil {
		return fmt.Errorf("join poll: %w", err)
	}

	for {
		var msg models.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read update: %w", err)
		}
		switch msg.Type {
		case models.MessageVoteUpdate:
			if msg.Poll != nil {
				fn(msg.Poll)
			}
		case models.MessageError:
			return fmt.Errorf("realtime error: %s", msg.Message)
		}
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
