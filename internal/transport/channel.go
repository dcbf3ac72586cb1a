// Package transport carries the persistent event channel between the client
// and the room backend. Messages travel as a small envelope:
//
//	{"event": "new_challenge", "data": {...}}
//
// Inbound events are dispatched to subscribers in arrival order from a single
// read loop, so folds observe the server's ordering.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("transport: channel closed")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Envelope is the wire frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel is a connected event channel. Safe for concurrent use.
type Channel struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[int]func(event string, data json.RawMessage)
	nextSub int
	closed  bool
	onClose func()

	done chan struct{}
}

// Dial connects to the backend's websocket endpoint. onClose fires exactly
// once when the connection drops for any reason, including explicit Close.
func Dial(ctx context.Context, url string, onClose func()) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		conn:    conn,
		subs:    make(map[int]func(string, json.RawMessage)),
		onClose: onClose,
		done:    make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

// Subscribe registers a handler for every inbound event and returns its
// teardown. The teardown handle is the only way to detach, so handlers cannot
// leak across reconnects.
func (c *Channel) Subscribe(fn func(event string, data json.RawMessage)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Emit sends one outbound event.
func (c *Channel) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close shuts the connection down. Idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Channel) readLoop() {
	defer c.teardown()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("transport: read error: %v", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("transport: dropping malformed frame: %v", err)
			continue
		}
		if env.Event == "" {
			continue
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env Envelope) {
	c.mu.Lock()
	handlers := make([]func(string, json.RawMessage), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(env.Event, env.Data)
	}
}

func (c *Channel) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) teardown() {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	onClose := c.onClose
	c.onClose = nil
	c.mu.Unlock()

	close(c.done)
	if !alreadyClosed {
		_ = c.conn.Close()
	}
	if onClose != nil {
		onClose()
	}
}
