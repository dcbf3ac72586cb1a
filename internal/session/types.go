package session

// ChallengeType tags the challenge union. Every inbound challenge carries one of
// these; anything else is rejected before it can reach the view layer.
type ChallengeType string

const (
	TypeQuiz   ChallengeType = "quiz"
	TypeAction ChallengeType = "action"
	TypeTarget ChallengeType = "target"
	TypeMemory ChallengeType = "memory"
	TypeMath   ChallengeType = "math"
)

// Valid reports whether t is one of the five known challenge types.
func (t ChallengeType) Valid() bool {
	switch t {
	case TypeQuiz, TypeAction, TypeTarget, TypeMemory, TypeMath:
		return true
	}
	return false
}

// MiniGame reports whether the challenge runs an embedded engine with its own
// timers instead of the outer countdown.
func (t ChallengeType) MiniGame() bool {
	return t == TypeTarget || t == TypeMemory || t == TypeMath
}

// Player is a room participant. Presence is the only mutable aspect; the server
// resends the full roster on every join/leave.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered_current_round"`
}

// ChallengeConfig carries the per-type tuning knobs sent by the server.
type ChallengeConfig struct {
	TargetCount   int `json:"targetCount,omitempty"`
	Rounds        int `json:"rounds,omitempty"`
	QuestionCount int `json:"questionCount,omitempty"`
}

// Challenge is immutable for the duration of its round.
type Challenge struct {
	Type        ChallengeType   `json:"type"`
	Points      int             `json:"points"`
	TimeLimit   int             `json:"time_limit"`
	Question    string          `json:"question,omitempty"`
	Options     []string        `json:"options,omitempty"`
	Description string          `json:"description,omitempty"`
	Config      ChallengeConfig `json:"config,omitempty"`
}

// ScoreEntry is one scoreboard row. Order is server-authoritative (descending
// by score) and is preserved verbatim, never re-sorted locally.
type ScoreEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered_current_round"`
}

// PlayerResult is one player's outcome within a round.
type PlayerResult struct {
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	PlayerAvatar string `json:"player_avatar"`
	Answer       string `json:"answer"`
	Correct      bool   `json:"correct"`
	PointsEarned int    `json:"points_earned"`
}

// RoundResult exists between a round ending and the next round starting.
type RoundResult struct {
	Challenge     *Challenge     `json:"challenge"`
	CorrectAnswer string         `json:"correct_answer,omitempty"`
	PlayersResult []PlayerResult `json:"players_results"`
	Scoreboard    []ScoreEntry   `json:"scoreboard"`
}

// AnswerResult is the per-player acknowledgement of a submitted answer.
type AnswerResult struct {
	Correct bool   `json:"correct"`
	Answer  string `json:"answer"`
}

// Snapshot is the local view of the joined session. It is owned exclusively by
// the Client and mutated only by event folds; callers receive copies.
type Snapshot struct {
	RoomID       string        `json:"room_id"`
	Players      []Player      `json:"players"`
	Challenge    *Challenge    `json:"current_challenge"`
	RoundResults *RoundResult  `json:"round_results"`
	Scoreboard   []ScoreEntry  `json:"scoreboard"`
	Started      bool          `json:"started"`
	Ended        bool          `json:"ended"`
	Winner       *ScoreEntry   `json:"winner"`
	LastAnswer   *AnswerResult `json:"last_answer"`
	Connected    bool          `json:"connected"`
}

// clone returns a deep copy so callbacks never alias the client's state.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Players = append([]Player(nil), s.Players...)
	out.Scoreboard = append([]ScoreEntry(nil), s.Scoreboard...)
	if s.Challenge != nil {
		c := *s.Challenge
		c.Options = append([]string(nil), s.Challenge.Options...)
		out.Challenge = &c
	}
	if s.RoundResults != nil {
		r := *s.RoundResults
		r.PlayersResult = append([]PlayerResult(nil), s.RoundResults.PlayersResult...)
		r.Scoreboard = append([]ScoreEntry(nil), s.RoundResults.Scoreboard...)
		out.RoundResults = &r
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.LastAnswer != nil {
		a := *s.LastAnswer
		out.LastAnswer = &a
	}
	return out
}
