// Package roomapi consumes the backend's REST surface for room creation and
// lookup. The session itself never goes through here; that is the event
// channel's job.
package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrRoomNotFound = errors.New("room not found")

// Client talks to the room backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL (e.g. "http://localhost:5000/api").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRoomResponse echoes the server's create-room reply.
type CreateRoomResponse struct {
	Success    bool   `json:"success"`
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// RoomInfo is the lookup reply used by the join screen.
type RoomInfo struct {
	PlayerCount int  `json:"player_count"`
	GameStarted bool `json:"game_started"`
}

// CreateRoom asks the backend for a fresh room. The name must already be
// validated; an empty avatar gets the server-side default.
func (c *Client) CreateRoom(ctx context.Context, playerName, avatar string) (CreateRoomResponse, error) {
	body, err := json.Marshal(map[string]string{
		"player_name": playerName,
		"avatar":      avatar,
	})
	if err != nil {
		return CreateRoomResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-room", bytes.NewReader(body))
	if err != nil {
		return CreateRoomResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out CreateRoomResponse
	if err := c.do(req, &out); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("create room: %w", err)
	}
	return out, nil
}

// GetRoomInfo looks a room up by its (already validated) code.
func (c *Client) GetRoomInfo(ctx context.Context, roomID string) (RoomInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/room/"+roomID, nil)
	if err != nil {
		return RoomInfo{}, err
	}

	var out RoomInfo
	if err := c.do(req, &out); err != nil {
		return RoomInfo{}, fmt.Errorf("room info: %w", err)
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return errors.New(e.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
