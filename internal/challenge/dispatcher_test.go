package challenge

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Fish7w7/Party-Challenges/internal/minigame"
	"github.com/Fish7w7/Party-Challenges/internal/session"
)

type submitRecorder struct {
	answers []string
}

func (r *submitRecorder) submit(answer string) error {
	r.answers = append(r.answers, answer)
	return nil
}

func dispatcherUnderTest(t *testing.T) (*Dispatcher, *submitRecorder, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	rec := &submitRecorder{}
	d := New(fc, rand.New(rand.NewSource(1)), rec.submit, nil)
	return d, rec, fc
}

func TestQuizSubmitOnce(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz, TimeLimit: 10}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	d.SetDraft("  42  ")
	if err := d.SubmitQuiz(); err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if len(rec.answers) != 1 || rec.answers[0] != "42" {
		t.Fatalf("answers = %v", rec.answers)
	}
	if !d.Submitted() {
		t.Error("Submitted() = false after submit")
	}

	// Repeat submission and a later timer expiry both stay silent.
	if err := d.SubmitQuiz(); err != nil {
		t.Fatalf("second SubmitQuiz: %v", err)
	}
	fc.Advance(time.Minute)
	if len(rec.answers) != 1 {
		t.Errorf("answers after expiry = %v, want the single original", rec.answers)
	}
}

func TestQuizEmptyDraftNeverSubmitted(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz, TimeLimit: 3}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	d.SetDraft("   ")
	if err := d.SubmitQuiz(); err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	fc.Advance(time.Minute)
	if len(rec.answers) != 0 {
		t.Errorf("empty draft submitted: %v", rec.answers)
	}
	if d.TimeLeft() != 0 {
		t.Errorf("countdown did not run out: %d", d.TimeLeft())
	}
}

func TestQuizExpirySubmitsDraft(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz, TimeLimit: 3}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	d.SetDraft("maybe")
	fc.Advance(3 * time.Second)
	if len(rec.answers) != 1 || rec.answers[0] != "maybe" {
		t.Errorf("answers = %v, want the draft", rec.answers)
	}
}

func TestActionExpiryCountsAsCompleted(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeAction, TimeLimit: 2}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	fc.Advance(2 * time.Second)
	if len(rec.answers) != 1 || rec.answers[0] != "completed" {
		t.Errorf("answers = %v, want [completed]", rec.answers)
	}
}

func TestActionCompleteBeatsTimer(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeAction, TimeLimit: 5}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := d.CompleteAction(); err != nil {
		t.Fatalf("CompleteAction: %v", err)
	}
	fc.Advance(time.Minute)
	if len(rec.answers) != 1 {
		t.Errorf("answers = %v, want exactly one", rec.answers)
	}
}

func TestDefaultCountdown(t *testing.T) {
	d, _, _ := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := d.TimeLeft(); got != 30 {
		t.Errorf("TimeLeft = %d, want the 30s default", got)
	}
}

func TestMiniGameLifecycle(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	err := d.Begin(session.Challenge{
		Type:      session.TypeMath,
		TimeLimit: 2,
		Config:    session.ChallengeConfig{QuestionCount: 5},
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	eng, ok := d.Engine().(*minigame.Arithmetic)
	if !ok {
		t.Fatalf("engine = %T, want *minigame.Arithmetic", d.Engine())
	}
	// The engine waits for the explicit start.
	if f := eng.Frame(); f.Phase != minigame.MathIdle {
		t.Fatalf("engine started eagerly: %+v", f)
	}

	if err := d.StartEngine(); err != nil {
		t.Fatalf("StartEngine: %v", err)
	}
	fc.Advance(5 * time.Second)

	if len(rec.answers) != 1 {
		t.Fatalf("answers = %v, want exactly one", rec.answers)
	}
	var result minigame.MathResult
	if err := json.Unmarshal([]byte(rec.answers[0]), &result); err != nil {
		t.Fatalf("answer is not a result payload: %v", err)
	}
	if !d.Submitted() {
		t.Error("Submitted() = false after engine completion")
	}
}

func TestCancelDiscardsWithoutSubmitting(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeTarget, TimeLimit: 2}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := d.StartEngine(); err != nil {
		t.Fatalf("StartEngine: %v", err)
	}
	fc.Advance(time.Second)

	d.Cancel()
	fc.Advance(time.Minute)
	if len(rec.answers) != 0 {
		t.Errorf("canceled round submitted: %v", rec.answers)
	}
	if d.Engine() != nil {
		t.Error("engine still mounted after cancel")
	}
}

func TestBeginReplacesMountedRound(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeTarget, TimeLimit: 30}); err != nil {
		t.Fatalf("Begin target: %v", err)
	}
	if err := d.StartEngine(); err != nil {
		t.Fatalf("StartEngine: %v", err)
	}

	// Mounting the next round aborts the running engine silently.
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz, TimeLimit: 10}); err != nil {
		t.Fatalf("Begin quiz: %v", err)
	}
	fc.Advance(time.Minute)

	// Only the quiz round's expiry path could have submitted, and its draft
	// was empty, so nothing went out at all.
	if len(rec.answers) != 0 {
		t.Errorf("answers = %v, want none", rec.answers)
	}
	if d.Engine() != nil {
		t.Error("stale engine still mounted")
	}
}

func TestCancelSuppressesPendingCompletion(t *testing.T) {
	d, rec, fc := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeMath, TimeLimit: 2}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := d.StartEngine(); err != nil {
		t.Fatalf("StartEngine: %v", err)
	}

	// Run the engine out; its result emission is now pending on the settle
	// delay.
	fc.Advance(2 * time.Second)
	if len(rec.answers) != 0 {
		t.Fatalf("answers before settle = %v", rec.answers)
	}

	// The round concludes upstream before the emission fires.
	d.Cancel()
	fc.Advance(time.Minute)
	if len(rec.answers) != 0 {
		t.Errorf("dead round submitted late: %v", rec.answers)
	}
}

func TestStaleCompletionDiscarded(t *testing.T) {
	d, rec, _ := dispatcherUnderTest(t)
	if err := d.Begin(session.Challenge{Type: session.TypeTarget, TimeLimit: 30}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	d.mu.Lock()
	staleGen := d.gen
	d.mu.Unlock()

	// The next round mounts while the old round's completion is in flight.
	if err := d.Begin(session.Challenge{Type: session.TypeQuiz, TimeLimit: 30}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := d.submitOnce(staleGen, `{"score":100}`); err != nil {
		t.Fatalf("stale submitOnce: %v", err)
	}
	if len(rec.answers) != 0 {
		t.Fatalf("stale completion attributed to new round: %v", rec.answers)
	}
	if d.Submitted() {
		t.Error("stale completion consumed the new round's submission")
	}

	// The mounted round still submits normally.
	d.SetDraft("fresh")
	if err := d.SubmitQuiz(); err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if len(rec.answers) != 1 || rec.answers[0] != "fresh" {
		t.Errorf("answers = %v, want [fresh]", rec.answers)
	}
}

func TestWrongTypeOperations(t *testing.T) {
	d, _, _ := dispatcherUnderTest(t)

	if err := d.SubmitQuiz(); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("SubmitQuiz unmounted: got %v", err)
	}
	if err := d.StartEngine(); !errors.Is(err, ErrNotMiniGame) {
		t.Errorf("StartEngine unmounted: got %v", err)
	}

	if err := d.Begin(session.Challenge{Type: session.TypeAction, TimeLimit: 10}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := d.SubmitQuiz(); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("SubmitQuiz on action round: got %v", err)
	}
	if err := d.StartEngine(); !errors.Is(err, ErrNotMiniGame) {
		t.Errorf("StartEngine on action round: got %v", err)
	}
}
