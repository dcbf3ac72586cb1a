// Package history keeps a local log of played sessions so the client can show
// past games. Writes are best-effort: a failed insert is logged by the caller
// and never interrupts play.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SessionRecord is one joined room.
type SessionRecord struct {
	ID         uuid.UUID  `json:"id"`
	RoomID     string     `json:"room_id"`
	PlayerName string     `json:"player_name"`
	JoinedAt   time.Time  `json:"joined_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Placement  int        `json:"placement"`
	FinalScore int        `json:"final_score"`
	RoundCount int64      `json:"round_count"`
}

// RoundRecord is one played round within a session.
type RoundRecord struct {
	ID            int64     `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	ChallengeType string    `json:"challenge_type"`
	Correct       bool      `json:"correct"`
	PointsEarned  int       `json:"points_earned"`
	PlayedAt      time.Time `json:"played_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens/creates the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&cache=shared", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			joined_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			placement INTEGER NOT NULL DEFAULT 0,
			final_score INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_joined ON sessions(joined_at DESC);`,

		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			challenge_type TEXT NOT NULL,
			correct INTEGER NOT NULL,
			points_earned INTEGER NOT NULL,
			played_at TIMESTAMP NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, played_at);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return tx.Commit()
}

// BeginSession records a freshly joined room and returns its local id.
func (s *Store) BeginSession(ctx context.Context, roomID, playerName string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, room_id, player_name, joined_at) VALUES (?, ?, ?, ?)`,
		id.String(), roomID, playerName, time.Now().UTC())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// RecordRound appends one round outcome.
func (s *Store) RecordRound(ctx context.Context, sessionID uuid.UUID, challengeType string, correct bool, points int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (session_id, challenge_type, correct, points_earned, played_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID.String(), challengeType, boolToInt(correct), points, time.Now().UTC())
	return err
}

// FinishSession closes a session with the player's final placement and score.
func (s *Store) FinishSession(ctx context.Context, sessionID uuid.UUID, placement, finalScore int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, placement = ?, final_score = ? WHERE id = ?`,
		time.Now().UTC(), placement, finalScore, sessionID.String())
	return err
}

// ListSessions returns recent sessions with round counts, newest first.
func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]SessionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.room_id, s.player_name, s.joined_at, s.ended_at, s.placement, s.final_score,
		       COUNT(r.id)
		FROM sessions s
		LEFT JOIN rounds r ON r.session_id = s.id
		GROUP BY s.id
		ORDER BY s.joined_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var id string
		var ended sql.NullTime
		if err := rows.Scan(&id, &rec.RoomID, &rec.PlayerName, &rec.JoinedAt, &ended,
			&rec.Placement, &rec.FinalScore, &rec.RoundCount); err != nil {
			return nil, err
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt session id %q: %w", id, err)
		}
		if ended.Valid {
			t := ended.Time
			rec.EndedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionRounds returns the rounds of one session in play order.
func (s *Store) SessionRounds(ctx context.Context, sessionID uuid.UUID) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, challenge_type, correct, points_earned, played_at
		FROM rounds WHERE session_id = ? ORDER BY played_at ASC, id ASC`,
		sessionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		var id string
		var correct int
		if err := rows.Scan(&rec.ID, &id, &rec.ChallengeType, &correct, &rec.PointsEarned, &rec.PlayedAt); err != nil {
			return nil, err
		}
		rec.SessionID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt session id %q: %w", id, err)
		}
		rec.Correct = correct != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
