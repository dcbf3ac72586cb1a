// Package bindings exposes the client engine to the Wails frontend. Modules
// here stay thin: they validate, delegate to internal packages, and relay
// state changes to the UI through runtime events.
package bindings

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Fish7w7/Party-Challenges/internal/history"
)

const appConfigDirName = "party-challenges"

// App owns application lifecycle and the local history store.
type App struct {
	ctx     context.Context
	history *history.Store
}

func New() *App { return &App{} }

// Startup is called by Wails on application startup.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	appDir := filepath.Join(configDir, appConfigDirName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		log.Printf("appdata mkdir failed: %v; history disabled", err)
		return
	}

	store, err := history.New(filepath.Join(appDir, "history.db"))
	if err != nil {
		log.Printf("history store init failed: %v; history disabled", err)
		return
	}
	a.history = store
}

// Shutdown closes the history store.
func (a *App) Shutdown(ctx context.Context) {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("history store close: %v", err)
		}
	}
}

// History returns the store, or nil when disabled.
func (a *App) History() *history.Store { return a.history }

// ListHistory returns recent local sessions, newest first.
func (a *App) ListHistory(limit, offset int) ([]history.SessionRecord, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.ListSessions(a.ctx, limit, offset)
}

// HistoryRounds returns the rounds of one recorded session.
func (a *App) HistoryRounds(sessionID string) ([]history.RoundRecord, error) {
	if a.history == nil {
		return nil, nil
	}
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, err
	}
	return a.history.SessionRounds(a.ctx, id)
}
