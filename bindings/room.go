package bindings

import (
	"context"

	"github.com/Fish7w7/Party-Challenges/internal/roomapi"
)

// RoomModule covers the pre-join surface: create/lookup rooms over REST and
// validate inputs locally before anything touches the network.
type RoomModule struct {
	ctx context.Context
	api *roomapi.Client
}

func NewRoomModule(apiBaseURL string) *RoomModule {
	return &RoomModule{api: roomapi.NewClient(apiBaseURL)}
}

// Startup is called by Wails on application startup.
func (m *RoomModule) Startup(ctx context.Context) {
	m.ctx = ctx
}

// ValidationResult is the frontend-facing outcome of a local check.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidatePlayerName checks a display name without any network call.
func (m *RoomModule) ValidatePlayerName(name string) ValidationResult {
	clean, err := roomapi.ValidatePlayerName(name)
	if err != nil {
		return ValidationResult{Message: err.Error()}
	}
	return ValidationResult{Valid: true, Value: clean}
}

// ValidateRoomCode normalizes and checks a room code locally.
func (m *RoomModule) ValidateRoomCode(code string) ValidationResult {
	clean, err := roomapi.ValidateRoomCode(code)
	if err != nil {
		return ValidationResult{Message: err.Error()}
	}
	return ValidationResult{Valid: true, Value: clean}
}

// CreateRoom validates the name locally, then asks the backend for a room.
func (m *RoomModule) CreateRoom(playerName, avatar string) (roomapi.CreateRoomResponse, error) {
	clean, err := roomapi.ValidatePlayerName(playerName)
	if err != nil {
		return roomapi.CreateRoomResponse{}, err
	}
	return m.api.CreateRoom(m.ctx, clean, avatar)
}

// GetRoomInfo validates the code locally, then looks the room up.
func (m *RoomModule) GetRoomInfo(roomCode string) (roomapi.RoomInfo, error) {
	clean, err := roomapi.ValidateRoomCode(roomCode)
	if err != nil {
		return roomapi.RoomInfo{}, err
	}
	return m.api.GetRoomInfo(m.ctx, clean)
}
