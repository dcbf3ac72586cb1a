package session

import (
	"encoding/json"
	"strings"
	"sync"
)

const defaultAvatar = "👤"

// Channel is the bidirectional event pipe the client folds from and emits to.
// Satisfied by *transport.Channel.
type Channel interface {
	Subscribe(fn func(event string, data json.RawMessage)) (cancel func())
	Emit(event string, payload any) error
}

// Options configures a Client. Both callbacks are optional and are invoked
// from the channel's dispatch goroutine, one event at a time.
type Options struct {
	// OnState receives a copy of the snapshot after every fold that changed it.
	OnState func(Snapshot)
	// OnError receives upstream `error` events and fold failures.
	OnError func(error)
}

// Client folds inbound channel events into a session snapshot and emits
// outbound operations. Every operation emits exactly one event and never
// blocks; results arrive asynchronously through the fold path.
type Client struct {
	ch   Channel
	opts Options

	mu        sync.Mutex
	snap      Snapshot
	host      bool
	joined    bool
	submitted bool // per-round submission latch
	cancel    func()
}

func New(ch Channel, opts Options) *Client {
	return &Client{ch: ch, opts: opts}
}

// Join subscribes to the channel and emits join_room. host records whether
// this client created the room (join-order index 0 upstream).
func (c *Client) Join(roomID, playerName, avatar string, host bool) error {
	c.mu.Lock()
	if c.joined {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	if avatar == "" {
		avatar = defaultAvatar
	}
	c.joined = true
	c.host = host
	c.snap = Snapshot{RoomID: roomID, Connected: true}
	c.cancel = c.ch.Subscribe(c.handleEvent)
	c.mu.Unlock()

	return c.ch.Emit(EvJoinRoom, joinRoomPayload{
		RoomID:     roomID,
		PlayerName: strings.TrimSpace(playerName),
		Avatar:     avatar,
	})
}

// StartGame is host-only and requires at least two players. Both checks are
// repeated authoritatively upstream; rejecting locally just avoids a pointless
// round trip.
func (c *Client) StartGame() error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if !c.host {
		c.mu.Unlock()
		return ErrNotHost
	}
	if len(c.snap.Players) < 2 {
		c.mu.Unlock()
		return ErrNotEnoughPlayers
	}
	roomID := c.snap.RoomID
	c.mu.Unlock()
	return c.ch.Emit(EvStartGame, roomOnlyPayload{RoomID: roomID})
}

// SubmitAnswer emits at most one submit_answer per round. A second attempt in
// the same round (timer expiry racing a completed mini-game) is a silent no-op:
// the first completion wins.
func (c *Client) SubmitAnswer(answer string) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if c.submitted {
		c.mu.Unlock()
		return nil
	}
	c.submitted = true
	roomID := c.snap.RoomID
	c.mu.Unlock()
	return c.ch.Emit(EvSubmitAnswer, submitAnswerPayload{RoomID: roomID, Answer: answer})
}

// Submitted reports whether an answer has gone out for the current round.
func (c *Client) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

func (c *Client) NextRound() error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if !c.host {
		c.mu.Unlock()
		return ErrNotHost
	}
	roomID := c.snap.RoomID
	c.mu.Unlock()
	return c.ch.Emit(EvNextRound, roomOnlyPayload{RoomID: roomID})
}

func (c *Client) RequestScoreboard() error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	roomID := c.snap.RoomID
	c.mu.Unlock()
	return c.ch.Emit(EvGetScoreboard, roomOnlyPayload{RoomID: roomID})
}

func (c *Client) ResetGame() error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if !c.host {
		c.mu.Unlock()
		return ErrNotHost
	}
	roomID := c.snap.RoomID
	c.mu.Unlock()
	return c.ch.Emit(EvResetGame, roomOnlyPayload{RoomID: roomID})
}

// Leave tears down the subscription and discards the snapshot. This is the
// only path that clears state; a mere disconnect freezes it instead.
func (c *Client) Leave() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.joined = false
	c.host = false
	c.submitted = false
	c.snap = Snapshot{}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// HandleDisconnect freezes the last known snapshot. Reconnection policy
// belongs to the transport layer, not here.
func (c *Client) HandleDisconnect() {
	c.mu.Lock()
	if !c.joined || !c.snap.Connected {
		c.mu.Unlock()
		return
	}
	c.snap.Connected = false
	snap := c.snap.clone()
	cb := c.opts.OnState
	c.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}

// Snapshot returns a copy of the current session state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// View derives the current view from the snapshot.
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeriveView(c.snap)
}

// IsHost reports whether this client created the room.
func (c *Client) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

func (c *Client) handleEvent(event string, data json.RawMessage) {
	if event == EvError {
		var p errorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			p.Message = "malformed error event"
		}
		if c.opts.OnError != nil {
			c.opts.OnError(&UpstreamError{Message: p.Message})
		}
		return
	}

	c.mu.Lock()
	changed, err := c.snap.fold(event, data)
	if changed && event == EvNewChallenge {
		c.submitted = false
	}
	var snap Snapshot
	if changed {
		snap = c.snap.clone()
	}
	c.mu.Unlock()

	if err != nil {
		if c.opts.OnError != nil {
			c.opts.OnError(err)
		}
		return
	}
	if changed && c.opts.OnState != nil {
		c.opts.OnState(snap)
	}
}
