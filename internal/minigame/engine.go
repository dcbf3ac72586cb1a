// Package minigame holds the three embedded challenge simulations. Each engine
// is a self-contained timed state machine: it is created for exactly one round,
// consumes player input, reports one terminal result through Complete, and
// releases every timer it armed on every exit path.
package minigame

import (
	"errors"
	"math/rand"

	"github.com/jonboulle/clockwork"
)

var ErrUnknownGame = errors.New("minigame: unknown game kind")

// Engine kinds, matching the challenge wire types.
const (
	KindTarget = "target"
	KindMemory = "memory"
	KindMath   = "math"
)

// Config carries the server-tuned knobs for one round.
type Config struct {
	TimeLimit     int // seconds; reflex and arithmetic
	TargetCount   int // reflex difficulty denominator
	Rounds        int // memory rounds
	QuestionCount int // arithmetic questions
	AreaWidth     float64
	AreaHeight    float64
}

func (c Config) withDefaults(kind string) Config {
	if c.TimeLimit <= 0 {
		if kind == KindMath {
			c.TimeLimit = 60
		} else {
			c.TimeLimit = 30
		}
	}
	if c.TargetCount <= 0 {
		c.TargetCount = 10
	}
	if c.Rounds <= 0 {
		c.Rounds = 5
	}
	if c.QuestionCount <= 0 {
		c.QuestionCount = 10
	}
	if c.AreaWidth <= 0 {
		c.AreaWidth = 760
	}
	if c.AreaHeight <= 0 {
		c.AreaHeight = 450
	}
	return c
}

// Deps are the injected capabilities. Clock and Rand make every engine
// deterministic under test; Complete receives the terminal result exactly
// once; Notify (optional) fires after state changes so the UI can repaint.
type Deps struct {
	Clock    clockwork.Clock
	Rand     *rand.Rand
	Complete func(result any)
	Notify   func()
}

// Engine is one running simulation.
type Engine interface {
	// Kind returns the engine's registry key.
	Kind() string
	// Start arms the engine's timers and begins the simulation.
	Start()
	// Abort cancels all timers and discards in-progress state without
	// emitting a result.
	Abort()
}

// Factory builds an engine for one round.
type Factory func(cfg Config, deps Deps) Engine

var registry = make(map[string]Factory)

// Register adds a factory to the registry.
func Register(kind string, f Factory) {
	registry[kind] = f
}

// New builds the engine for kind, or ErrUnknownGame.
func New(kind string, cfg Config, deps Deps) (Engine, error) {
	f, ok := registry[kind]
	if !ok {
		return nil, ErrUnknownGame
	}
	return f(cfg, deps), nil
}

// Kinds returns all registered engine kinds.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}

func init() {
	Register(KindTarget, func(cfg Config, deps Deps) Engine { return NewReflex(cfg, deps) })
	Register(KindMemory, func(cfg Config, deps Deps) Engine { return NewMemory(cfg, deps) })
	Register(KindMath, func(cfg Config, deps Deps) Engine { return NewArithmetic(cfg, deps) })
}
