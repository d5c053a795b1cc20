// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/livepoll/models"
)

// DefaultChannel is the Redis pub/sub channel vote updates travel on.
const DefaultChannel = "livepoll:votes"

type relayMessage struct {
	PollID string       `json:"pollId"`
	Poll   *models.Poll `json:"poll"`
}

// RedisRelay is a Broadcaster for running several server instances. Publish
// goes to a Redis channel and Run delivers everything on that channel,
// including this instance's own updates, to the local hub.
type RedisRelay struct {
	client  redis.UniversalClient
	hub     *Hub
	channel string

	ready     chan struct{}
	readyOnce sync.Once
}

func NewRedisRelay(client redis.UniversalClient, hub *Hub, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		hub:     hub,
		channel: channel,
		ready:   make(chan struct{}),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, pollID string, poll *models.Poll) error {
	payload, err := json.Marshal(relayMessage{PollID: pollID, Poll: poll})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Ready is closed once the subscription is confirmed by Redis.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// WaitReady blocks until the subscription is confirmed or ctx is done.
func (r *RedisRelay) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run subscribes to the channel and forwards messages to the hub until ctx
// is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	slog.Info("vote relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil || m.PollID == "" || m.Poll == nil {
				slog.Warn("discarding malformed relay message", "channel", msg.Channel)
				continue
			}
			if err := r.hub.Publish(ctx, m.PollID, m.Poll); err != nil {
				slog.Error("relay delivery failed", "poll_id", m.PollID, "error", err)
			}
		}
	}
}

// DialRedis parses a redis:// URL and verifies the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
