package minigame

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Reflex phases.
type ReflexPhase string

const (
	ReflexIdle   ReflexPhase = "idle"
	ReflexActive ReflexPhase = "active"
	ReflexEnded  ReflexPhase = "ended"
)

const (
	reflexMoveTick   = 16 * time.Millisecond // ~60 Hz
	reflexExpireTick = 50 * time.Millisecond
	reflexSettle     = time.Second
	reflexFadeWindow = 300 * time.Millisecond
)

// Target is one clickable spawn. Created by the spawn scheduler, destroyed on
// click or expiry.
type Target struct {
	ID        string        `json:"id"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Size      float64       `json:"size"`
	Moving    bool          `json:"moving"`
	VelX      float64       `json:"-"`
	VelY      float64       `json:"-"`
	SpawnedAt time.Time     `json:"-"`
	Lifetime  time.Duration `json:"-"`
	// Opacity is presentation data: targets fade out over their last 300ms.
	Opacity float64 `json:"opacity"`
}

// ReflexResult is the terminal payload, serialized into submit_answer.
type ReflexResult struct {
	Score    int     `json:"score"`
	Hits     int     `json:"hits"`
	Missed   int     `json:"missed"`
	Accuracy float64 `json:"accuracy"`
	MaxCombo int     `json:"maxCombo"`
}

// ReflexFrame is the UI-facing snapshot of the running simulation.
type ReflexFrame struct {
	Phase    ReflexPhase `json:"phase"`
	TimeLeft int         `json:"time_left"`
	Hits     int         `json:"hits"`
	Missed   int         `json:"missed"`
	Combo    int         `json:"combo"`
	Targets  []Target    `json:"targets"`
}

// reflexDifficulty holds the curve values for a given progress.
type reflexDifficulty struct {
	targetSize    float64
	lifetime      time.Duration
	spawnInterval time.Duration
	maxConcurrent int
	movingProb    float64
}

// Reflex is the target-click engine. Difficulty scales with hits/targetCount:
// targets shrink, expire faster, spawn faster, and start moving.
type Reflex struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	phase    ReflexPhase
	targets  []Target
	hits     int
	missed   int
	combo    int
	timeLeft int
	nextID   int
	emitted  bool

	countdownT clockwork.Timer
	spawnT     clockwork.Timer
	moveT      clockwork.Timer
	expireT    clockwork.Timer
	settleT    clockwork.Timer
}

func NewReflex(cfg Config, deps Deps) *Reflex {
	return &Reflex{cfg: cfg.withDefaults(KindTarget), deps: deps, phase: ReflexIdle}
}

func (g *Reflex) Kind() string { return KindTarget }

func (g *Reflex) Start() {
	g.mu.Lock()
	if g.phase != ReflexIdle {
		g.mu.Unlock()
		return
	}
	g.phase = ReflexActive
	g.timeLeft = g.cfg.TimeLimit
	d := g.difficulty()
	g.countdownT = g.deps.Clock.AfterFunc(time.Second, g.tickCountdown)
	g.spawnT = g.deps.Clock.AfterFunc(d.spawnInterval, g.tickSpawn)
	g.moveT = g.deps.Clock.AfterFunc(reflexMoveTick, g.tickMove)
	g.expireT = g.deps.Clock.AfterFunc(reflexExpireTick, g.tickExpire)
	g.mu.Unlock()
	g.notify()
}

// Abort discards the round. No result is emitted afterwards.
func (g *Reflex) Abort() {
	g.mu.Lock()
	g.phase = ReflexEnded
	g.emitted = true
	g.stopTimersLocked()
	g.mu.Unlock()
}

// ClickTarget handles a hit on a live target. Returns false if the target has
// already expired or been clicked.
func (g *Reflex) ClickTarget(id string) bool {
	g.mu.Lock()
	if g.phase != ReflexActive {
		g.mu.Unlock()
		return false
	}
	idx := -1
	for i := range g.targets {
		if g.targets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return false
	}
	g.targets = append(g.targets[:idx], g.targets[idx+1:]...)
	g.hits++
	g.combo++
	g.mu.Unlock()
	g.notify()
	return true
}

// ClickArea handles a click on empty space: the combo decays by one (floor 0)
// with no effect on the hit or miss counters.
func (g *Reflex) ClickArea() {
	g.mu.Lock()
	if g.phase == ReflexActive && g.combo > 0 {
		g.combo--
	}
	g.mu.Unlock()
	g.notify()
}

// Frame returns the current simulation state for rendering.
func (g *Reflex) Frame() ReflexFrame {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.deps.Clock.Now()
	targets := make([]Target, len(g.targets))
	for i, t := range g.targets {
		remaining := t.Lifetime - now.Sub(t.SpawnedAt)
		t.Opacity = 1
		if remaining < reflexFadeWindow {
			frac := float64(remaining) / float64(reflexFadeWindow)
			if frac < 0 {
				frac = 0
			}
			t.Opacity = 0.3 + frac*0.7
		}
		targets[i] = t
	}
	return ReflexFrame{
		Phase:    g.phase,
		TimeLeft: g.timeLeft,
		Hits:     g.hits,
		Missed:   g.missed,
		Combo:    g.combo,
		Targets:  targets,
	}
}

// difficulty derives the curve from progress = hits/targetCount, clamped to
// [0,1]. All knobs are monotonic in progress.
func (g *Reflex) difficulty() reflexDifficulty {
	progress := float64(g.hits) / float64(g.cfg.TargetCount)
	if progress > 1 {
		progress = 1
	}
	return reflexDifficulty{
		targetSize:    math.Max(30, 70-40*progress),
		lifetime:      time.Duration(math.Max(800, 1800-1000*progress)) * time.Millisecond,
		spawnInterval: time.Duration(math.Max(600, 1200-600*progress)) * time.Millisecond,
		maxConcurrent: int(math.Min(4, 2+math.Floor(2*progress))),
		movingProb:    math.Min(0.7, 0.7*progress),
	}
}

func (g *Reflex) tickCountdown() {
	g.mu.Lock()
	if g.phase != ReflexActive {
		g.mu.Unlock()
		return
	}
	g.timeLeft--
	if g.timeLeft <= 0 {
		g.timeLeft = 0
		g.finishLocked()
		g.mu.Unlock()
		g.notify()
		return
	}
	g.countdownT = g.deps.Clock.AfterFunc(time.Second, g.tickCountdown)
	g.mu.Unlock()
	g.notify()
}

func (g *Reflex) tickSpawn() {
	g.mu.Lock()
	if g.phase != ReflexActive {
		g.mu.Unlock()
		return
	}
	d := g.difficulty()
	if len(g.targets) < d.maxConcurrent {
		g.targets = append(g.targets, g.spawnLocked(d))
	}
	g.spawnT = g.deps.Clock.AfterFunc(d.spawnInterval, g.tickSpawn)
	g.mu.Unlock()
	g.notify()
}

func (g *Reflex) spawnLocked(d reflexDifficulty) Target {
	rng := g.deps.Rand
	size := d.targetSize + rng.Float64()*15 - 7.5
	x := rng.Float64()*(g.cfg.AreaWidth-size-20) + 10
	y := rng.Float64()*(g.cfg.AreaHeight-size-20) + 10
	moving := rng.Float64() < d.movingProb
	t := Target{
		ID:        fmt.Sprintf("t%d", g.nextID),
		X:         x,
		Y:         y,
		Size:      size,
		Moving:    moving,
		SpawnedAt: g.deps.Clock.Now(),
		Lifetime:  d.lifetime,
		Opacity:   1,
	}
	if moving {
		t.VelX = (rng.Float64() - 0.5) * 2
		t.VelY = (rng.Float64() - 0.5) * 2
	}
	g.nextID++
	return t
}

func (g *Reflex) tickMove() {
	g.mu.Lock()
	if g.phase != ReflexActive {
		g.mu.Unlock()
		return
	}
	for i := range g.targets {
		t := &g.targets[i]
		if !t.Moving {
			continue
		}
		t.X += t.VelX
		t.Y += t.VelY
		// Reflect off the play-area edges.
		if t.X <= 0 || t.X >= g.cfg.AreaWidth-t.Size {
			t.VelX = -t.VelX
			t.X = math.Max(0, math.Min(g.cfg.AreaWidth-t.Size, t.X))
		}
		if t.Y <= 0 || t.Y >= g.cfg.AreaHeight-t.Size {
			t.VelY = -t.VelY
			t.Y = math.Max(0, math.Min(g.cfg.AreaHeight-t.Size, t.Y))
		}
	}
	g.moveT = g.deps.Clock.AfterFunc(reflexMoveTick, g.tickMove)
	g.mu.Unlock()
	g.notify()
}

func (g *Reflex) tickExpire() {
	g.mu.Lock()
	if g.phase != ReflexActive {
		g.mu.Unlock()
		return
	}
	now := g.deps.Clock.Now()
	kept := g.targets[:0]
	expired := 0
	for _, t := range g.targets {
		if now.Sub(t.SpawnedAt) > t.Lifetime {
			expired++
			continue
		}
		kept = append(kept, t)
	}
	g.targets = kept
	if expired > 0 {
		g.missed += expired
		g.combo = 0
	}
	g.expireT = g.deps.Clock.AfterFunc(reflexExpireTick, g.tickExpire)
	g.mu.Unlock()
	if expired > 0 {
		g.notify()
	}
}

func (g *Reflex) finishLocked() {
	g.phase = ReflexEnded
	g.stopTimersLocked()
	g.settleT = g.deps.Clock.AfterFunc(reflexSettle, g.emit)
}

func (g *Reflex) emit() {
	g.mu.Lock()
	if g.emitted {
		g.mu.Unlock()
		return
	}
	g.emitted = true
	result := scoreReflex(g.hits, g.missed, g.combo)
	g.mu.Unlock()
	if g.deps.Complete != nil {
		g.deps.Complete(result)
	}
}

func (g *Reflex) stopTimersLocked() {
	for _, t := range []clockwork.Timer{g.countdownT, g.spawnT, g.moveT, g.expireT, g.settleT} {
		if t != nil {
			t.Stop()
		}
	}
	g.countdownT, g.spawnT, g.moveT, g.expireT, g.settleT = nil, nil, nil, nil, nil
}

func (g *Reflex) notify() {
	if g.deps.Notify != nil {
		g.deps.Notify()
	}
}

// scoreReflex normalizes the round outcome. Accuracy defaults to 0 when
// nothing was attempted.
func scoreReflex(hits, missed, combo int) ReflexResult {
	accuracy := 0.0
	if hits+missed > 0 {
		accuracy = float64(hits) / float64(hits+missed) * 100
	}
	final := int(math.Round(float64(hits*10) + accuracy*2 + float64(combo*5)))
	return ReflexResult{
		Score:    final,
		Hits:     hits,
		Missed:   missed,
		Accuracy: math.Round(accuracy*10) / 10,
		MaxCombo: combo,
	}
}
