package bindings

import (
	"context"
	"log"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Fish7w7/Party-Challenges/internal/challenge"
	"github.com/Fish7w7/Party-Challenges/internal/scoreboard"
	"github.com/Fish7w7/Party-Challenges/internal/session"
	"github.com/Fish7w7/Party-Challenges/internal/transport"
)

// UI event names emitted by this module.
const (
	evSessionState   = "session:state"
	evSessionError   = "session:error"
	evSessionOffline = "session:disconnected"
	evRoundFrame     = "round:frame"
)

// SessionModule manages the joined game session: the event channel, the
// session state machine and the challenge dispatcher for the active round.
// Every snapshot change is pushed to the frontend as a `session:state` event.
type SessionModule struct {
	ctx   context.Context
	wsURL string
	app   *App

	mu          sync.Mutex
	channel     *transport.Channel
	client      *session.Client
	dispatcher  *challenge.Dispatcher
	playerName  string
	lastChal    *session.Challenge
	historyID   uuid.UUID
	roundLogged bool // current round_results already written to history
}

func NewSessionModule(wsURL string, app *App) *SessionModule {
	return &SessionModule{wsURL: wsURL, app: app}
}

// Startup is called by Wails on application startup.
func (m *SessionModule) Startup(ctx context.Context) {
	m.ctx = ctx
}

// StateView is the frontend-facing snapshot plus its derived view and ranked
// scoreboard.
type StateView struct {
	Snapshot   session.Snapshot   `json:"snapshot"`
	View       session.View       `json:"view"`
	Scoreboard []scoreboard.Row   `json:"scoreboard"`
	Summary    scoreboard.Summary `json:"summary"`
	IsHost     bool               `json:"is_host"`
	Submitted  bool               `json:"submitted"`
}

// JoinRoom connects the channel and joins. host marks the room creator.
func (m *SessionModule) JoinRoom(roomID, playerName, avatar string, host bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return session.ErrAlreadyJoined
	}

	ch, err := transport.Dial(m.ctx, m.wsURL, m.onDisconnect)
	if err != nil {
		return err
	}

	cl := session.New(ch, session.Options{
		OnState: m.onState,
		OnError: m.onError,
	})

	m.channel = ch
	m.client = cl
	m.playerName = playerName
	m.lastChal = nil
	m.roundLogged = false
	m.dispatcher = challenge.New(
		clockwork.NewRealClock(),
		rand.New(rand.NewSource(time.Now().UnixNano())),
		cl.SubmitAnswer,
		m.emitFrame,
	)

	if m.app != nil && m.app.History() != nil {
		id, err := m.app.History().BeginSession(m.ctx, roomID, playerName)
		if err != nil {
			log.Printf("history: begin session: %v", err)
		} else {
			m.historyID = id
		}
	}

	if err := cl.Join(roomID, playerName, avatar, host); err != nil {
		ch.Close()
		m.channel = nil
		m.client = nil
		m.dispatcher = nil
		return err
	}
	return nil
}

// Leave tears the session down and discards local state.
func (m *SessionModule) Leave() {
	m.mu.Lock()
	ch := m.channel
	cl := m.client
	disp := m.dispatcher
	m.channel = nil
	m.client = nil
	m.dispatcher = nil
	m.lastChal = nil
	m.historyID = uuid.Nil
	m.roundLogged = false
	m.mu.Unlock()

	if disp != nil {
		disp.Cancel()
	}
	if cl != nil {
		cl.Leave()
	}
	if ch != nil {
		_ = ch.Close()
	}
}

func (m *SessionModule) StartGame() error {
	cl := m.clientRef()
	if cl == nil {
		return session.ErrNotJoined
	}
	return cl.StartGame()
}

func (m *SessionModule) NextRound() error {
	cl := m.clientRef()
	if cl == nil {
		return session.ErrNotJoined
	}
	return cl.NextRound()
}

func (m *SessionModule) RequestScoreboard() error {
	cl := m.clientRef()
	if cl == nil {
		return session.ErrNotJoined
	}
	return cl.RequestScoreboard()
}

func (m *SessionModule) ResetGame() error {
	cl := m.clientRef()
	if cl == nil {
		return session.ErrNotJoined
	}
	return cl.ResetGame()
}

// GetState returns the current snapshot with derived data, for UI mount.
func (m *SessionModule) GetState() StateView {
	cl := m.clientRef()
	if cl == nil {
		return StateView{View: session.ViewLobby}
	}
	return m.stateView(cl.Snapshot())
}

func (m *SessionModule) clientRef() *session.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *SessionModule) dispatcherRef() *challenge.Dispatcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatcher
}

func (m *SessionModule) stateView(snap session.Snapshot) StateView {
	m.mu.Lock()
	cl := m.client
	disp := m.dispatcher
	m.mu.Unlock()

	sv := StateView{
		Snapshot:   snap,
		View:       session.DeriveView(snap),
		Scoreboard: scoreboard.Rank(snap.Scoreboard),
		Summary:    scoreboard.Summarize(snap.Scoreboard),
	}
	if cl != nil {
		sv.IsHost = cl.IsHost()
		sv.Submitted = cl.Submitted()
	}
	if disp != nil && !sv.Submitted {
		sv.Submitted = disp.Submitted()
	}
	return sv
}

// onState runs on the channel dispatch goroutine for every snapshot change.
// It drives the dispatcher lifecycle and the history log, then relays the
// state to the frontend.
func (m *SessionModule) onState(snap session.Snapshot) {
	m.mu.Lock()
	disp := m.dispatcher
	prev := m.lastChal
	m.lastChal = snap.Challenge
	m.mu.Unlock()

	if disp != nil {
		switch {
		case snap.RoundResults != nil || snap.Ended:
			// The server concluded the round (round_results keeps the
			// challenge set). Tear the mounted round down so no engine
			// timer outlives it or submits late.
			disp.Cancel()
		case snap.Challenge != nil && !reflect.DeepEqual(prev, snap.Challenge):
			if err := disp.Begin(*snap.Challenge); err != nil {
				m.onError(err)
			}
		case snap.Challenge == nil && prev != nil:
			// Game reset or left: discard the mounted round.
			disp.Cancel()
		}
	}

	m.recordHistory(snap)

	if m.ctx != nil {
		runtime.EventsEmit(m.ctx, evSessionState, m.stateView(snap))
	}
}

func (m *SessionModule) onError(err error) {
	log.Printf("session: %v", err)
	if m.ctx != nil {
		runtime.EventsEmit(m.ctx, evSessionError, err.Error())
	}
}

func (m *SessionModule) onDisconnect() {
	cl := m.clientRef()
	if cl != nil {
		cl.HandleDisconnect()
	}
	if m.ctx != nil {
		runtime.EventsEmit(m.ctx, evSessionOffline, nil)
	}
}

// emitFrame pushes the active round's frame (countdown or engine state).
func (m *SessionModule) emitFrame() {
	if m.ctx == nil {
		return
	}
	disp := m.dispatcherRef()
	if disp == nil {
		return
	}
	runtime.EventsEmit(m.ctx, evRoundFrame, buildFrame(disp))
}

// recordHistory appends the player's own round outcome and closes the session
// record when the game ends. Failures are logged, never surfaced.
//
// One round_results is one row: the logged flag dedups the repeated snapshots
// between round end and the next challenge, and re-arms when round_results
// clears, so identical back-to-back challenges still get their own rows.
func (m *SessionModule) recordHistory(snap session.Snapshot) {
	m.mu.Lock()
	id := m.historyID
	name := m.playerName
	logged := m.roundLogged
	m.mu.Unlock()
	if m.app == nil || m.app.History() == nil || id == uuid.Nil {
		return
	}

	rr := snap.RoundResults
	if rr == nil || rr.Challenge == nil {
		if logged {
			m.mu.Lock()
			m.roundLogged = false
			m.mu.Unlock()
		}
	} else if !logged {
		for _, pr := range rr.PlayersResult {
			if pr.PlayerName != name {
				continue
			}
			if err := m.app.History().RecordRound(m.ctx, id,
				string(rr.Challenge.Type), pr.Correct, pr.PointsEarned); err != nil {
				log.Printf("history: record round: %v", err)
			}
			break
		}
		m.mu.Lock()
		m.roundLogged = true
		m.mu.Unlock()
	}

	if snap.Ended {
		placement, score := 0, 0
		for i, e := range snap.Scoreboard {
			if e.Name == name {
				placement, score = i+1, e.Score
				break
			}
		}
		if err := m.app.History().FinishSession(m.ctx, id, placement, score); err != nil {
			log.Printf("history: finish session: %v", err)
		}
		m.mu.Lock()
		m.historyID = uuid.Nil
		m.mu.Unlock()
	}
}
