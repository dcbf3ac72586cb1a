package minigame

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Arithmetic phases.
type MathPhase string

const (
	MathIdle   MathPhase = "idle"
	MathActive MathPhase = "active"
	MathEnded  MathPhase = "ended"
)

const (
	mathFeedbackDelay = time.Second
	mathSettle        = 1500 * time.Millisecond
)

// Question is one generated arithmetic problem.
type Question struct {
	A      int    `json:"a"`
	B      int    `json:"b"`
	Op     string `json:"op"`
	Answer int    `json:"-"`
	Text   string `json:"text"`
}

// MathFeedback reveals the outcome of a submission until the next question.
type MathFeedback struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points,omitempty"`
	Answer  int  `json:"answer,omitempty"` // revealed on a wrong answer
}

// MathResult is the terminal payload.
type MathResult struct {
	Score          int `json:"score"`
	CorrectAnswers int `json:"correctAnswers"`
	TimeBonus      int `json:"timeBonus"`
}

// MathFrame is the UI-facing snapshot.
type MathFrame struct {
	Phase          MathPhase     `json:"phase"`
	Question       *Question     `json:"question"`
	QuestionNumber int           `json:"question_number"`
	QuestionCount  int           `json:"question_count"`
	Score          int           `json:"score"`
	Streak         int           `json:"streak"`
	TimeLeft       int           `json:"time_left"`
	Feedback       *MathFeedback `json:"feedback"`
}

// Arithmetic is the timed mental-math engine. Operand magnitude grows with the
// question number; streaks of correct answers earn escalating bonuses.
type Arithmetic struct {
	cfg  Config
	deps Deps

	mu             sync.Mutex
	phase          MathPhase
	question       *Question
	score          int
	questionNumber int
	streak         int
	timeLeft       int
	feedback       *MathFeedback
	emitted        bool

	countdownT clockwork.Timer
	nextT      clockwork.Timer
	settleT    clockwork.Timer
}

func NewArithmetic(cfg Config, deps Deps) *Arithmetic {
	return &Arithmetic{cfg: cfg.withDefaults(KindMath), deps: deps, phase: MathIdle}
}

func (g *Arithmetic) Kind() string { return KindMath }

func (g *Arithmetic) Start() {
	g.mu.Lock()
	if g.phase != MathIdle {
		g.mu.Unlock()
		return
	}
	g.phase = MathActive
	g.questionNumber = 1
	g.timeLeft = g.cfg.TimeLimit
	g.question = g.generateLocked(tier(1))
	g.countdownT = g.deps.Clock.AfterFunc(time.Second, g.tickCountdown)
	g.mu.Unlock()
	g.notify()
}

func (g *Arithmetic) Abort() {
	g.mu.Lock()
	g.phase = MathEnded
	g.emitted = true
	g.stopTimersLocked()
	g.mu.Unlock()
}

// Submit checks an answer by exact integer equality. Empty input is ignored;
// a submission while feedback is showing is ignored too.
func (g *Arithmetic) Submit(answer string) {
	g.mu.Lock()
	if g.phase != MathActive || g.feedback != nil || g.question == nil {
		g.mu.Unlock()
		return
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		g.mu.Unlock()
		return
	}

	n, err := strconv.Atoi(answer)
	if err == nil && n == g.question.Answer {
		points := 10 + 2*g.streak
		g.score += points
		g.streak++
		g.feedback = &MathFeedback{Correct: true, Points: points}
	} else {
		g.streak = 0
		g.feedback = &MathFeedback{Correct: false, Answer: g.question.Answer}
	}
	g.nextT = g.deps.Clock.AfterFunc(mathFeedbackDelay, g.advance)
	g.mu.Unlock()
	g.notify()
}

// Frame returns the current state for rendering. The answer is never exposed
// while the question is open.
func (g *Arithmetic) Frame() MathFrame {
	g.mu.Lock()
	defer g.mu.Unlock()
	var q *Question
	if g.question != nil {
		cp := *g.question
		q = &cp
	}
	var fb *MathFeedback
	if g.feedback != nil {
		cp := *g.feedback
		fb = &cp
	}
	return MathFrame{
		Phase:          g.phase,
		Question:       q,
		QuestionNumber: g.questionNumber,
		QuestionCount:  g.cfg.QuestionCount,
		Score:          g.score,
		Streak:         g.streak,
		TimeLeft:       g.timeLeft,
		Feedback:       fb,
	}
}

// tier buckets the difficulty: questions 1-2 use tier 1, 3-4 tier 2, and so on.
func tier(questionNumber int) int {
	return int(math.Ceil(float64(questionNumber) / 2))
}

// generateLocked produces one question. Subtraction orders the operands so the
// result is non-negative; multiplication halves them to keep products
// tractable.
func (g *Arithmetic) generateLocked(tier int) *Question {
	rng := g.deps.Rand
	limit := 20
	switch {
	case tier > 6:
		limit = 100
	case tier > 3:
		limit = 50
	}

	a := rng.Intn(limit) + 1
	b := rng.Intn(limit) + 1
	op := [...]string{"+", "-", "*"}[rng.Intn(3)]

	var answer int
	switch op {
	case "+":
		answer = a + b
	case "-":
		if a < b {
			a, b = b, a
		}
		answer = a - b
	case "*":
		a /= 2
		b /= 2
		answer = a * b
	}

	return &Question{
		A:      a,
		B:      b,
		Op:     op,
		Answer: answer,
		Text:   strconv.Itoa(a) + " " + op + " " + strconv.Itoa(b),
	}
}

func (g *Arithmetic) advance() {
	g.mu.Lock()
	if g.phase != MathActive {
		g.mu.Unlock()
		return
	}
	if g.questionNumber >= g.cfg.QuestionCount {
		g.endLocked()
		g.mu.Unlock()
		g.notify()
		return
	}
	g.questionNumber++
	g.question = g.generateLocked(tier(g.questionNumber))
	g.feedback = nil
	g.mu.Unlock()
	g.notify()
}

func (g *Arithmetic) tickCountdown() {
	g.mu.Lock()
	if g.phase != MathActive {
		g.mu.Unlock()
		return
	}
	g.timeLeft--
	if g.timeLeft <= 0 {
		g.timeLeft = 0
		g.endLocked()
		g.mu.Unlock()
		g.notify()
		return
	}
	g.countdownT = g.deps.Clock.AfterFunc(time.Second, g.tickCountdown)
	g.mu.Unlock()
	g.notify()
}

func (g *Arithmetic) endLocked() {
	g.phase = MathEnded
	g.stopTimersLocked()
	g.settleT = g.deps.Clock.AfterFunc(mathSettle, g.emit)
}

func (g *Arithmetic) emit() {
	g.mu.Lock()
	if g.emitted {
		g.mu.Unlock()
		return
	}
	g.emitted = true
	bonus := g.timeLeft * 2
	if bonus < 0 {
		bonus = 0
	}
	result := MathResult{
		Score:          g.score,
		CorrectAnswers: g.score / 10,
		TimeBonus:      bonus,
	}
	g.mu.Unlock()
	if g.deps.Complete != nil {
		g.deps.Complete(result)
	}
}

func (g *Arithmetic) stopTimersLocked() {
	for _, t := range []clockwork.Timer{g.countdownT, g.nextT, g.settleT} {
		if t != nil {
			t.Stop()
		}
	}
	g.countdownT, g.nextT, g.settleT = nil, nil, nil
}

func (g *Arithmetic) notify() {
	if g.deps.Notify != nil {
		g.deps.Notify()
	}
}
