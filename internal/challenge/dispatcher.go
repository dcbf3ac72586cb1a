// Package challenge mounts the right input-collection behavior for the active
// challenge and funnels every outcome into a single submit call. Classic quiz
// and action challenges run the outer countdown here; mini-games manage their
// own internal timers and report through the completion normalizer.
package challenge

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Fish7w7/Party-Challenges/internal/minigame"
	"github.com/Fish7w7/Party-Challenges/internal/session"
)

var (
	ErrNoChallenge = errors.New("challenge: nothing mounted")
	ErrNotMiniGame = errors.New("challenge: not a mini-game round")
)

const actionAnswer = "completed"

// Dispatcher owns the lifecycle of one mounted challenge at a time. The first
// completion wins: whether the outer timer fires, the player submits, or a
// mini-game finishes, only one answer ever goes out per round.
type Dispatcher struct {
	clock  clockwork.Clock
	rand   *rand.Rand
	submit func(answer string) error
	notify func()

	mu        sync.Mutex
	current   *session.Challenge
	engine    minigame.Engine
	draft     string
	timeLeft  int
	done      bool
	gen       int // round generation; stale completions carry an older value
	countdown clockwork.Timer
}

func New(clock clockwork.Clock, rng *rand.Rand, submit func(string) error, notify func()) *Dispatcher {
	return &Dispatcher{clock: clock, rand: rng, submit: submit, notify: notify}
}

// Begin mounts a challenge, tearing down whatever was mounted before. For
// mini-game types the engine is created but not started; the player starts it
// explicitly (the round shows an instruction screen first).
func (d *Dispatcher) Begin(ch session.Challenge) error {
	d.Cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	d.current = &ch
	d.done = false
	d.draft = ""

	if ch.Type.MiniGame() {
		eng, err := minigame.New(string(ch.Type), minigame.Config{
			TimeLimit:     ch.TimeLimit,
			TargetCount:   ch.Config.TargetCount,
			Rounds:        ch.Config.Rounds,
			QuestionCount: ch.Config.QuestionCount,
		}, minigame.Deps{
			Clock:    d.clock,
			Rand:     d.rand,
			Complete: func(result any) { d.completeMiniGame(gen, result) },
			Notify:   d.notify,
		})
		if err != nil {
			d.current = nil
			return err
		}
		d.engine = eng
		return nil
	}

	d.timeLeft = ch.TimeLimit
	if d.timeLeft <= 0 {
		d.timeLeft = 30
	}
	d.countdown = d.clock.AfterFunc(time.Second, func() { d.tick(gen) })
	return nil
}

// Cancel unmounts the current challenge without submitting. Safe to call when
// nothing is mounted.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	d.gen++
	eng := d.engine
	d.engine = nil
	d.current = nil
	d.done = true
	if d.countdown != nil {
		d.countdown.Stop()
		d.countdown = nil
	}
	d.mu.Unlock()
	if eng != nil {
		eng.Abort()
	}
}

// SetDraft records the in-progress quiz answer (free text, or the selected
// option index as a string).
func (d *Dispatcher) SetDraft(text string) {
	d.mu.Lock()
	d.draft = text
	d.mu.Unlock()
}

// SubmitQuiz sends the drafted quiz answer. An empty draft is not submitted.
func (d *Dispatcher) SubmitQuiz() error {
	d.mu.Lock()
	if d.current == nil || d.current.Type != session.TypeQuiz {
		d.mu.Unlock()
		return ErrNoChallenge
	}
	answer := strings.TrimSpace(d.draft)
	gen := d.gen
	d.mu.Unlock()
	if answer == "" {
		return nil
	}
	return d.submitOnce(gen, answer)
}

// CompleteAction marks an action challenge done.
func (d *Dispatcher) CompleteAction() error {
	d.mu.Lock()
	if d.current == nil || d.current.Type != session.TypeAction {
		d.mu.Unlock()
		return ErrNoChallenge
	}
	gen := d.gen
	d.mu.Unlock()
	return d.submitOnce(gen, actionAnswer)
}

// StartEngine begins the mounted mini-game.
func (d *Dispatcher) StartEngine() error {
	d.mu.Lock()
	eng := d.engine
	d.mu.Unlock()
	if eng == nil {
		return ErrNotMiniGame
	}
	eng.Start()
	return nil
}

// Engine exposes the mounted mini-game for input forwarding, or nil.
func (d *Dispatcher) Engine() minigame.Engine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine
}

// TimeLeft reports the outer countdown for quiz/action rounds.
func (d *Dispatcher) TimeLeft() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeLeft
}

// Submitted reports whether this round's answer already went out.
func (d *Dispatcher) Submitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *Dispatcher) tick(gen int) {
	d.mu.Lock()
	if d.done || d.current == nil || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timeLeft--
	if d.timeLeft > 0 {
		d.countdown = d.clock.AfterFunc(time.Second, func() { d.tick(gen) })
		d.mu.Unlock()
		if d.notify != nil {
			d.notify()
		}
		return
	}
	d.timeLeft = 0

	// Timer expiry: submit whatever is drafted. An empty quiz draft stays
	// unsubmitted; an expired action round counts as completed.
	var answer string
	switch d.current.Type {
	case session.TypeAction:
		answer = actionAnswer
	default:
		answer = strings.TrimSpace(d.draft)
	}
	d.mu.Unlock()
	if d.notify != nil {
		d.notify()
	}
	if answer == "" {
		return
	}
	_ = d.submitOnce(gen, answer)
}

func (d *Dispatcher) completeMiniGame(gen int, result any) {
	b, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = d.submitOnce(gen, string(b))
}

// submitOnce is the at-most-one-submission gate for the round. A completion
// carrying a stale generation lost the race against Cancel/Begin and is
// discarded rather than attributed to the round mounted now.
func (d *Dispatcher) submitOnce(gen int, answer string) error {
	d.mu.Lock()
	if d.done || gen != d.gen {
		d.mu.Unlock()
		return nil
	}
	d.done = true
	if d.countdown != nil {
		d.countdown.Stop()
		d.countdown = nil
	}
	d.mu.Unlock()
	return d.submit(answer)
}
