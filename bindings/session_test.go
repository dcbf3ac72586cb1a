package bindings

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Fish7w7/Party-Challenges/internal/challenge"
	"github.com/Fish7w7/Party-Challenges/internal/history"
	"github.com/Fish7w7/Party-Challenges/internal/session"
)

// sessionModuleUnderTest wires a module with a fake-clock dispatcher and no
// Wails context, so onState can be driven directly.
func sessionModuleUnderTest(t *testing.T) (*SessionModule, *clockwork.FakeClock, *[]string) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	var answers []string
	m := &SessionModule{}
	m.dispatcher = challenge.New(fc, rand.New(rand.NewSource(1)),
		func(answer string) error {
			answers = append(answers, answer)
			return nil
		}, nil)
	return m, fc, &answers
}

func TestRoundResultsTearDownEngine(t *testing.T) {
	m, fc, answers := sessionModuleUnderTest(t)
	ch := session.Challenge{Type: session.TypeMath, Points: 200, TimeLimit: 2}

	m.onState(session.Snapshot{Started: true, Challenge: &ch})
	if m.dispatcher.Engine() == nil {
		t.Fatal("engine not mounted")
	}
	if err := m.dispatcher.StartEngine(); err != nil {
		t.Fatalf("StartEngine: %v", err)
	}

	// The engine runs out; its result emission is pending on the settle delay
	// when the server concludes the round. round_results keeps the challenge
	// set, so only the round-concluded branch can tear this down.
	fc.Advance(2 * time.Second)
	m.onState(session.Snapshot{
		Started:      true,
		Challenge:    &ch,
		RoundResults: &session.RoundResult{Challenge: &ch},
	})

	if m.dispatcher.Engine() != nil {
		t.Error("engine still mounted after round conclusion")
	}
	fc.Advance(time.Minute)
	if len(*answers) != 0 {
		t.Errorf("dead round submitted late: %v", *answers)
	}
}

func TestGameEndedTearsDownRound(t *testing.T) {
	m, fc, answers := sessionModuleUnderTest(t)
	ch := session.Challenge{Type: session.TypeQuiz, Points: 100, TimeLimit: 5}

	m.onState(session.Snapshot{Started: true, Challenge: &ch})
	m.dispatcher.SetDraft("42")

	m.onState(session.Snapshot{Started: true, Ended: true, Challenge: &ch})
	fc.Advance(time.Minute)
	if len(*answers) != 0 {
		t.Errorf("round survived game end: %v", *answers)
	}
}

func TestNextChallengeMountsAfterRoundResults(t *testing.T) {
	m, _, _ := sessionModuleUnderTest(t)
	first := session.Challenge{Type: session.TypeMemory, Points: 300, TimeLimit: 30}
	second := session.Challenge{Type: session.TypeTarget, Points: 200, TimeLimit: 30}

	m.onState(session.Snapshot{Started: true, Challenge: &first})
	m.onState(session.Snapshot{
		Started:      true,
		Challenge:    &first,
		RoundResults: &session.RoundResult{Challenge: &first},
	})
	if m.dispatcher.Engine() != nil {
		t.Fatal("round not torn down")
	}

	m.onState(session.Snapshot{Started: true, Challenge: &second})
	eng := m.dispatcher.Engine()
	if eng == nil || eng.Kind() != "target" {
		t.Errorf("next round not mounted: %v", eng)
	}
}

func TestRecordHistoryOneRowPerRound(t *testing.T) {
	ctx := context.Background()
	st, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	id, err := st.BeginSession(ctx, "ABCD1234", "Ana")
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	m := &SessionModule{
		ctx:        ctx,
		app:        &App{ctx: ctx, history: st},
		playerName: "Ana",
		historyID:  id,
	}

	// Mini-game rounds have no question or description to tell them apart.
	ch := session.Challenge{Type: session.TypeTarget, Points: 200, TimeLimit: 30}
	results := session.Snapshot{
		Started:   true,
		Challenge: &ch,
		RoundResults: &session.RoundResult{
			Challenge: &ch,
			PlayersResult: []session.PlayerResult{
				{PlayerID: "p2", PlayerName: "Bruno", Correct: true, PointsEarned: 250},
				{PlayerID: "p1", PlayerName: "Ana", Correct: true, PointsEarned: 230},
			},
		},
	}

	// The round-results snapshot repeats (scoreboard refreshes) without
	// producing duplicate rows.
	m.recordHistory(results)
	m.recordHistory(results)

	rounds, err := st.SessionRounds(ctx, id)
	if err != nil {
		t.Fatalf("SessionRounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("got %d rows after one round, want 1", len(rounds))
	}
	if rounds[0].ChallengeType != "target" || rounds[0].PointsEarned != 230 {
		t.Errorf("row = %+v, want the player's own result", rounds[0])
	}

	// An identical back-to-back challenge still gets its own row.
	m.recordHistory(session.Snapshot{Started: true, Challenge: &ch})
	m.recordHistory(results)
	rounds, err = st.SessionRounds(ctx, id)
	if err != nil {
		t.Fatalf("SessionRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("got %d rows after identical second round, want 2", len(rounds))
	}

	// Game end closes the session with this player's placement.
	m.recordHistory(session.Snapshot{
		Ended: true,
		Scoreboard: []session.ScoreEntry{
			{ID: "p2", Name: "Bruno", Score: 500},
			{ID: "p1", Name: "Ana", Score: 460},
		},
	})
	sessions, err := st.ListSessions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions", len(sessions))
	}
	if sessions[0].Placement != 2 || sessions[0].FinalScore != 460 {
		t.Errorf("session close = %+v", sessions[0])
	}
	if sessions[0].EndedAt == nil {
		t.Error("ended_at not set")
	}
}
