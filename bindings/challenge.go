package bindings

import (
	"github.com/Fish7w7/Party-Challenges/internal/challenge"
	"github.com/Fish7w7/Party-Challenges/internal/minigame"
	"github.com/Fish7w7/Party-Challenges/internal/session"
)

// ChallengeModule forwards UI input into the active round: quiz drafts,
// action completion, and mini-game interactions.
type ChallengeModule struct {
	session *SessionModule
}

func NewChallengeModule(s *SessionModule) *ChallengeModule {
	return &ChallengeModule{session: s}
}

// RoundFrame is the frontend-facing state of the active round. Exactly one of
// the engine frames is set for mini-game rounds.
type RoundFrame struct {
	TimeLeft  int                   `json:"time_left"`
	Submitted bool                  `json:"submitted"`
	Reflex    *minigame.ReflexFrame `json:"reflex,omitempty"`
	Memory    *minigame.MemoryFrame `json:"memory,omitempty"`
	Math      *minigame.MathFrame   `json:"math,omitempty"`
}

func buildFrame(d *challenge.Dispatcher) RoundFrame {
	frame := RoundFrame{
		TimeLeft:  d.TimeLeft(),
		Submitted: d.Submitted(),
	}
	switch eng := d.Engine().(type) {
	case *minigame.Reflex:
		f := eng.Frame()
		frame.Reflex = &f
	case *minigame.Memory:
		f := eng.Frame()
		frame.Memory = &f
	case *minigame.Arithmetic:
		f := eng.Frame()
		frame.Math = &f
	}
	return frame
}

// GetFrame returns the current round frame, for UI mount.
func (m *ChallengeModule) GetFrame() RoundFrame {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return RoundFrame{}
	}
	return buildFrame(disp)
}

// SetDraft records the quiz answer in progress.
func (m *ChallengeModule) SetDraft(text string) error {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return session.ErrNotJoined
	}
	disp.SetDraft(text)
	return nil
}

// SubmitQuiz sends the drafted quiz answer.
func (m *ChallengeModule) SubmitQuiz() error {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return session.ErrNotJoined
	}
	return disp.SubmitQuiz()
}

// CompleteAction marks an action challenge done.
func (m *ChallengeModule) CompleteAction() error {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return session.ErrNotJoined
	}
	return disp.CompleteAction()
}

// StartMiniGame begins the mounted mini-game engine.
func (m *ChallengeModule) StartMiniGame() error {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return session.ErrNotJoined
	}
	return disp.StartEngine()
}

// ClickTarget reports a click on a reflex target. Returns whether it hit.
func (m *ChallengeModule) ClickTarget(targetID string) bool {
	if eng, ok := m.engine().(*minigame.Reflex); ok {
		return eng.ClickTarget(targetID)
	}
	return false
}

// ClickArea reports a click on empty reflex play-area space.
func (m *ChallengeModule) ClickArea() {
	if eng, ok := m.engine().(*minigame.Reflex); ok {
		eng.ClickArea()
	}
}

// PressSymbol reports a memory-pad press.
func (m *ChallengeModule) PressSymbol(symbol string) {
	if eng, ok := m.engine().(*minigame.Memory); ok {
		eng.Press(symbol)
	}
}

// SubmitMathAnswer checks an arithmetic answer.
func (m *ChallengeModule) SubmitMathAnswer(answer string) {
	if eng, ok := m.engine().(*minigame.Arithmetic); ok {
		eng.Submit(answer)
	}
}

func (m *ChallengeModule) engine() minigame.Engine {
	disp := m.session.dispatcherRef()
	if disp == nil {
		return nil
	}
	return disp.Engine()
}
