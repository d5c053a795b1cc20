// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound messages buffered per connection before updates are dropped.
	sendBuffer = 32

	maxPollIDLength = 128
)

// Conn is a websocket viewer. Each Conn has exactly one writer goroutine;
// the hub only ever queues messages on it.
type Conn struct {
	id   string
	ws   *websocket.Conn
	hub  *Hub
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(id string, ws *websocket.Conn, hub *Hub) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		hub:  hub,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues msg without blocking. It returns false when the queue is full
// or the connection is closing.
func (c *Conn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Serve runs the connection until the peer goes away. It always leaves every
// room and closes the socket before returning.
func (c *Conn) Serve() {
	go c.writePump()
	c.readPump()
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.Unsubscribe(c)
		c.ws.Close()
	})
}

func (c *Conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("realtime connection read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		c.handle(data)
	}
}

func (c *Conn) handle(data []byte) {
	var msg models.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message")
		return
	}

	switch msg.Type {
	case models.MessageJoinPoll:
		if err := validPollID(msg.PollID); err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.Subscribe(msg.PollID, c)
		slog.Debug("joined poll room", "conn_id", c.id, "poll_id", msg.PollID)
	case models.MessageLeavePoll:
		c.hub.Leave(msg.PollID, c)
	default:
		c.sendError("unknown message type")
	}
}

func (c *Conn) sendError(message string) {
	payload, err := json.Marshal(models.ServerMessage{Type: models.MessageError, Message: message})
	if err != nil {
		return
	}
	c.Send(payload)
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("realtime write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func validPollID(id string) error {
	if id == "" {
		return errors.New("pollId is required")
	}
	if len(id) > maxPollIDLength {
		return errors.New("pollId is too long")
	}
	return nil
}
