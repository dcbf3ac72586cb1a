package minigame

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func mathUnderTest(t *testing.T, cfg Config, complete func(any)) (*Arithmetic, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	g := NewArithmetic(cfg, Deps{
		Clock:    fc,
		Rand:     rand.New(rand.NewSource(3)),
		Complete: complete,
	})
	return g, fc
}

func TestTier(t *testing.T) {
	cases := []struct{ question, want int }{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {6, 3}, {7, 4}, {10, 5}, {13, 7},
	}
	for _, tc := range cases {
		if got := tier(tc.question); got != tc.want {
			t.Errorf("tier(%d) = %d, want %d", tc.question, got, tc.want)
		}
	}
}

func TestGenerateQuestionInvariants(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := NewArithmetic(Config{}, Deps{
			Clock: clockwork.NewFakeClock(),
			Rand:  rand.New(rand.NewSource(seed)),
		})
		for tr := 1; tr <= 8; tr++ {
			limit := 20
			switch {
			case tr > 6:
				limit = 100
			case tr > 3:
				limit = 50
			}
			for i := 0; i < 50; i++ {
				q := g.generateLocked(tr)
				if q.A < 0 || q.A > limit || q.B < 0 || q.B > limit {
					t.Fatalf("seed %d tier %d: operands (%d, %d) outside [0, %d]", seed, tr, q.A, q.B, limit)
				}
				switch q.Op {
				case "+":
					if q.Answer != q.A+q.B {
						t.Fatalf("%s: answer %d", q.Text, q.Answer)
					}
				case "-":
					if q.A < q.B {
						t.Fatalf("%s: subtraction not ordered", q.Text)
					}
					if q.Answer != q.A-q.B {
						t.Fatalf("%s: answer %d", q.Text, q.Answer)
					}
					if q.Answer < 0 {
						t.Fatalf("%s: negative answer", q.Text)
					}
				case "*":
					if q.Answer != q.A*q.B {
						t.Fatalf("%s: answer %d", q.Text, q.Answer)
					}
				default:
					t.Fatalf("unknown op %q", q.Op)
				}
				if q.Text != strconv.Itoa(q.A)+" "+q.Op+" "+strconv.Itoa(q.B) {
					t.Fatalf("text %q does not match operands", q.Text)
				}
			}
		}
	}
}

func TestMathStreakScoring(t *testing.T) {
	g, fc := mathUnderTest(t, Config{QuestionCount: 10}, nil)
	g.Start()

	answerCurrent := func() {
		t.Helper()
		f := g.Frame()
		if f.Question == nil {
			t.Fatal("no question")
		}
		g.Submit(strconv.Itoa(f.Question.Answer))
	}

	// Three in a row: 10, 12, 14 points.
	wantScore := 0
	for i, points := range []int{10, 12, 14} {
		answerCurrent()
		f := g.Frame()
		if f.Feedback == nil || !f.Feedback.Correct || f.Feedback.Points != points {
			t.Fatalf("question %d: feedback %+v, want %d points", i+1, f.Feedback, points)
		}
		wantScore += points
		if f.Score != wantScore {
			t.Fatalf("question %d: score %d, want %d", i+1, f.Score, wantScore)
		}
		fc.Advance(mathFeedbackDelay)
	}
	if f := g.Frame(); f.Streak != 3 || f.QuestionNumber != 4 {
		t.Fatalf("after streak: %+v", f)
	}

	// A wrong answer resets the streak and reveals the expected result.
	expected := g.Frame().Question.Answer
	g.Submit(strconv.Itoa(expected + 1))
	f := g.Frame()
	if f.Feedback == nil || f.Feedback.Correct || f.Feedback.Answer != expected {
		t.Fatalf("wrong answer feedback: %+v", f.Feedback)
	}
	if f.Streak != 0 {
		t.Errorf("streak = %d after wrong answer", f.Streak)
	}
	if f.Score != wantScore {
		t.Errorf("wrong answer changed score: %d", f.Score)
	}

	// Submissions are ignored while feedback is showing.
	g.Submit("0")
	if g.Frame().QuestionNumber != 4 {
		t.Error("submission during feedback advanced the question")
	}
}

func TestMathSubmitIgnoresBlankAndNonNumeric(t *testing.T) {
	g, _ := mathUnderTest(t, Config{}, nil)
	g.Start()

	g.Submit("   ")
	if g.Frame().Feedback != nil {
		t.Error("blank input produced feedback")
	}
	g.Submit("not a number")
	f := g.Frame()
	if f.Feedback == nil || f.Feedback.Correct {
		t.Error("non-numeric input should count as wrong")
	}
}

func TestMathCompletesAfterLastQuestion(t *testing.T) {
	var results []any
	g, fc := mathUnderTest(t, Config{QuestionCount: 2, TimeLimit: 60}, func(r any) { results = append(results, r) })
	g.Start()

	// Offset submissions from the countdown so timer deadlines never tie.
	fc.Advance(500 * time.Millisecond)

	for i := 0; i < 2; i++ {
		f := g.Frame()
		g.Submit(strconv.Itoa(f.Question.Answer))
		fc.Advance(mathFeedbackDelay)
	}
	if f := g.Frame(); f.Phase != MathEnded {
		t.Fatalf("phase %q after last question, want ended", f.Phase)
	}
	if len(results) != 0 {
		t.Fatal("result emitted before settle delay")
	}

	fc.Advance(mathSettle)
	if len(results) != 1 {
		t.Fatalf("emitted %d results, want 1", len(results))
	}
	got := results[0].(MathResult)
	want := MathResult{Score: 22, CorrectAnswers: 2, TimeBonus: 58 * 2}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}

	fc.Advance(time.Minute)
	if len(results) != 1 {
		t.Errorf("emitted %d results after extra time", len(results))
	}
}

func TestMathTimeoutEndsRound(t *testing.T) {
	var results []any
	g, fc := mathUnderTest(t, Config{TimeLimit: 2}, func(r any) { results = append(results, r) })
	g.Start()

	fc.Advance(2 * time.Second)
	if f := g.Frame(); f.Phase != MathEnded || f.TimeLeft != 0 {
		t.Fatalf("after timeout: %+v", f)
	}
	fc.Advance(mathSettle)
	if len(results) != 1 {
		t.Fatalf("emitted %d results, want 1", len(results))
	}
	want := MathResult{Score: 0, CorrectAnswers: 0, TimeBonus: 0}
	if got := results[0].(MathResult); got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestMathAbortEmitsNothing(t *testing.T) {
	emitted := 0
	g, fc := mathUnderTest(t, Config{}, func(any) { emitted++ })
	g.Start()
	fc.Advance(time.Second)

	g.Abort()
	fc.Advance(time.Minute)
	if emitted != 0 {
		t.Errorf("aborted round emitted %d results", emitted)
	}
}
