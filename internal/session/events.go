package session

// Inbound event names. These are part of the wire contract and must match the
// server verbatim.
const (
	EvRoomJoined       = "room_joined"
	EvPlayerJoined     = "player_joined"
	EvPlayerLeft       = "player_left"
	EvGameStarted      = "game_started"
	EvNewChallenge     = "new_challenge"
	EvAnswerResult     = "answer_result"
	EvRoundResults     = "round_results"
	EvGameEnded        = "game_ended"
	EvScoreboardUpdate = "scoreboard_update"
	EvGameReset        = "game_reset"
	EvError            = "error"
)

// Outbound event names.
const (
	EvJoinRoom      = "join_room"
	EvStartGame     = "start_game"
	EvSubmitAnswer  = "submit_answer"
	EvNextRound     = "next_round"
	EvGetScoreboard = "get_scoreboard"
	EvResetGame     = "reset_game"
)

type roomJoinedPayload struct {
	ID          string   `json:"id"`
	Players     []Player `json:"players"`
	GameStarted bool     `json:"game_started"`
}

type playersPayload struct {
	Players []Player `json:"players"`
}

type gameEndedPayload struct {
	FinalScoreboard []ScoreEntry `json:"final_scoreboard"`
	Winner          *ScoreEntry  `json:"winner"`
}

type scoreboardPayload struct {
	Scoreboard []ScoreEntry `json:"scoreboard"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Avatar     string `json:"avatar"`
}

type roomOnlyPayload struct {
	RoomID string `json:"room_id"`
}

type submitAnswerPayload struct {
	RoomID string `json:"room_id"`
	Answer string `json:"answer"`
}
