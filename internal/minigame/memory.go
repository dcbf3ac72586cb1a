package minigame

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memory phases. Input is only accepted during MemoryInput; clicks while the
// sequence animates are ignored outright, never queued.
type MemoryPhase string

const (
	MemoryStart     MemoryPhase = "start"
	MemoryPreparing MemoryPhase = "preparing"
	MemoryAnimating MemoryPhase = "animating"
	MemoryInput     MemoryPhase = "input"
	MemoryCorrect   MemoryPhase = "correct"
	MemoryWrong     MemoryPhase = "wrong"
	MemoryFinished  MemoryPhase = "finished"
)

// The fixed 4-symbol alphabet.
var memorySymbols = [4]string{"red", "blue", "green", "yellow"}

const (
	memoryGap        = 500 * time.Millisecond // dark gap before each highlight
	memoryHighlight  = 600 * time.Millisecond // highlight duration per symbol
	memoryFlash      = 200 * time.Millisecond // input click feedback
	memoryWrongDelay = 2 * time.Second
	memoryRightDelay = 1500 * time.Millisecond
)

// MemoryResult is the terminal payload.
type MemoryResult struct {
	Score       int `json:"score"`
	Rounds      int `json:"rounds"`
	MaxSequence int `json:"maxSequence"`
}

// MemoryFrame is the UI-facing snapshot.
type MemoryFrame struct {
	Phase       MemoryPhase `json:"phase"`
	Round       int         `json:"round"`
	Rounds      int         `json:"rounds"`
	Score       int         `json:"score"`
	SequenceLen int         `json:"sequence_len"`
	InputLen    int         `json:"input_len"`
	Active      string      `json:"active"` // currently highlighted symbol, "" when dark
}

// Memory is the sequence-recall engine. Round r plays a sequence of r+2
// symbols drawn uniformly (repeats allowed) from the alphabet.
type Memory struct {
	cfg  Config
	deps Deps

	mu        sync.Mutex
	phase     MemoryPhase
	sequence  []string
	userSeq   []string
	round     int
	score     int
	active    string
	animIndex int
	emitted   bool

	animT  clockwork.Timer
	flashT clockwork.Timer
	stepT  clockwork.Timer
}

func NewMemory(cfg Config, deps Deps) *Memory {
	return &Memory{cfg: cfg.withDefaults(KindMemory), deps: deps, phase: MemoryStart}
}

func (g *Memory) Kind() string { return KindMemory }

func (g *Memory) Start() {
	g.mu.Lock()
	if g.phase != MemoryStart {
		g.mu.Unlock()
		return
	}
	g.round = 1
	g.score = 0
	g.startRoundLocked()
	g.mu.Unlock()
	g.notify()
}

func (g *Memory) Abort() {
	g.mu.Lock()
	g.phase = MemoryFinished
	g.emitted = true
	g.stopTimersLocked()
	g.mu.Unlock()
}

// Press handles one symbol click. Outside the input phase it is a no-op.
func (g *Memory) Press(symbol string) {
	g.mu.Lock()
	if g.phase != MemoryInput || !validSymbol(symbol) {
		g.mu.Unlock()
		return
	}

	// Flash feedback regardless of correctness.
	g.active = symbol
	if g.flashT != nil {
		g.flashT.Stop()
	}
	g.flashT = g.deps.Clock.AfterFunc(memoryFlash, g.clearFlash)

	expected := g.sequence[len(g.userSeq)]
	g.userSeq = append(g.userSeq, symbol)

	if symbol != expected {
		g.phase = MemoryWrong
		g.stepT = g.deps.Clock.AfterFunc(memoryWrongDelay, g.advance)
		g.mu.Unlock()
		g.notify()
		return
	}

	if len(g.userSeq) == len(g.sequence) {
		g.score += len(g.sequence) * 10
		g.phase = MemoryCorrect
		g.stepT = g.deps.Clock.AfterFunc(memoryRightDelay, g.advance)
	}
	g.mu.Unlock()
	g.notify()
}

// Frame returns the current state for rendering. The sequence itself is never
// exposed while input is pending.
func (g *Memory) Frame() MemoryFrame {
	g.mu.Lock()
	defer g.mu.Unlock()
	return MemoryFrame{
		Phase:       g.phase,
		Round:       g.round,
		Rounds:      g.cfg.Rounds,
		Score:       g.score,
		SequenceLen: len(g.sequence),
		InputLen:    len(g.userSeq),
		Active:      g.active,
	}
}

func (g *Memory) startRoundLocked() {
	g.phase = MemoryPreparing
	g.userSeq = g.userSeq[:0]
	g.sequence = make([]string, g.round+2)
	for i := range g.sequence {
		g.sequence[i] = memorySymbols[g.deps.Rand.Intn(len(memorySymbols))]
	}
	g.animIndex = 0
	g.phase = MemoryAnimating
	g.animT = g.deps.Clock.AfterFunc(memoryGap, g.stepOn)
}

// stepOn highlights the next symbol in the sequence.
func (g *Memory) stepOn() {
	g.mu.Lock()
	if g.phase != MemoryAnimating {
		g.mu.Unlock()
		return
	}
	g.active = g.sequence[g.animIndex]
	g.animT = g.deps.Clock.AfterFunc(memoryHighlight, g.stepOff)
	g.mu.Unlock()
	g.notify()
}

// stepOff darkens again; after the last symbol the input phase opens.
func (g *Memory) stepOff() {
	g.mu.Lock()
	if g.phase != MemoryAnimating {
		g.mu.Unlock()
		return
	}
	g.active = ""
	g.animIndex++
	if g.animIndex < len(g.sequence) {
		g.animT = g.deps.Clock.AfterFunc(memoryGap, g.stepOn)
	} else {
		g.phase = MemoryInput
	}
	g.mu.Unlock()
	g.notify()
}

func (g *Memory) clearFlash() {
	g.mu.Lock()
	g.active = ""
	g.mu.Unlock()
	g.notify()
}

func (g *Memory) advance() {
	g.mu.Lock()
	if g.phase != MemoryCorrect && g.phase != MemoryWrong {
		g.mu.Unlock()
		return
	}
	if g.round >= g.cfg.Rounds {
		// Terminal: the one-shot latch guards against a duplicate finish
		// from racing timers. Complete runs outside the lock.
		g.phase = MemoryFinished
		g.stopTimersLocked()
		if g.emitted {
			g.mu.Unlock()
			return
		}
		g.emitted = true
		result := MemoryResult{
			Score:       g.score,
			Rounds:      g.round,
			MaxSequence: g.round + 2,
		}
		g.mu.Unlock()
		if g.deps.Complete != nil {
			g.deps.Complete(result)
		}
		g.notify()
		return
	}
	g.round++
	g.startRoundLocked()
	g.mu.Unlock()
	g.notify()
}

func (g *Memory) stopTimersLocked() {
	for _, t := range []clockwork.Timer{g.animT, g.flashT, g.stepT} {
		if t != nil {
			t.Stop()
		}
	}
	g.animT, g.flashT, g.stepT = nil, nil, nil
}

func (g *Memory) notify() {
	if g.deps.Notify != nil {
		g.deps.Notify()
	}
}

func validSymbol(s string) bool {
	for _, sym := range memorySymbols {
		if sym == s {
			return true
		}
	}
	return false
}
