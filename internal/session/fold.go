package session

import (
	"encoding/json"
	"fmt"
)

// fold applies one inbound event to the snapshot. Each handler decodes into a
// local value first and assigns only on success, so a malformed payload leaves
// the snapshot untouched. All handlers are idempotent: replaying an event
// yields the same snapshot as applying it once.
//
// The returned flag reports whether the snapshot changed; `error` events report
// false and are surfaced through the error callback instead.
func (s *Snapshot) fold(event string, data json.RawMessage) (bool, error) {
	switch event {
	case EvRoomJoined:
		var p roomJoinedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		if p.ID != "" {
			s.RoomID = p.ID
		}
		s.Players = p.Players
		s.Started = p.GameStarted
		return true, nil

	case EvPlayerJoined, EvPlayerLeft:
		var p playersPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		s.Players = p.Players
		return true, nil

	case EvGameStarted:
		s.Started = true
		return true, nil

	case EvNewChallenge:
		var c Challenge
		if err := json.Unmarshal(data, &c); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		if !c.Type.Valid() {
			return false, fmt.Errorf("%w: %q", ErrUnknownChallenge, c.Type)
		}
		s.Challenge = &c
		s.RoundResults = nil
		s.LastAnswer = nil
		return true, nil

	case EvAnswerResult:
		var a AnswerResult
		if err := json.Unmarshal(data, &a); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		s.LastAnswer = &a
		return true, nil

	case EvRoundResults:
		var r RoundResult
		if err := json.Unmarshal(data, &r); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		s.RoundResults = &r
		s.Scoreboard = r.Scoreboard
		return true, nil

	case EvGameEnded:
		var p gameEndedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		s.Ended = true
		s.Scoreboard = p.FinalScoreboard
		s.Winner = p.Winner
		return true, nil

	case EvScoreboardUpdate:
		var p scoreboardPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return false, fmt.Errorf("decode %s: %w", event, err)
		}
		s.Scoreboard = p.Scoreboard
		return true, nil

	case EvGameReset:
		s.Started = false
		s.Ended = false
		s.Challenge = nil
		s.RoundResults = nil
		s.LastAnswer = nil
		s.Winner = nil
		s.Scoreboard = nil
		return true, nil
	}

	// Unknown events are skipped rather than corrupting state.
	return false, nil
}
