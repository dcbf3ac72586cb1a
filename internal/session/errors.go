package session

import "errors"

var (
	ErrNotJoined        = errors.New("not joined to a room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrUnknownChallenge = errors.New("unknown challenge type")
	ErrAlreadyJoined    = errors.New("already joined a room")
)

// UpstreamError carries an `error` event from the server. It is surfaced to the
// caller and never mutates the session snapshot.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }
