package main

import (
	"context"
	"embed"
	"log"
	"os"
	"runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"

	"github.com/Fish7w7/Party-Challenges/bindings"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	defaultAPIURL = "http://localhost:5000/api"
	defaultWSURL  = "ws://localhost:5000/ws"
)

func main() {
	log.Printf("Starting Party Challenges (Go %s)...", runtime.Version())

	apiURL := envStr("PARTY_API_URL", defaultAPIURL)
	wsURL := envStr("PARTY_WS_URL", defaultWSURL)

	app := bindings.New()
	room := bindings.NewRoomModule(apiURL)
	sess := bindings.NewSessionModule(wsURL, app)
	chal := bindings.NewChallengeModule(sess)

	err := wails.Run(&options.App{
		Title:     "Party Challenges",
		Width:     1100,
		Height:    760,
		MinWidth:  900,
		MinHeight: 640,

		BackgroundColour: &options.RGBA{R: 102, G: 126, B: 234, A: 255},

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		OnStartup: func(ctx context.Context) {
			app.Startup(ctx)
			room.Startup(ctx)
			sess.Startup(ctx)
		},
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			sess.Leave()
			return false
		},
		OnShutdown: func(ctx context.Context) {
			app.Shutdown(ctx)
			log.Println("Application shutdown complete")
		},

		Bind: []interface{}{app, room, sess, chal},

		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,

		Linux: &linux.Options{
			ProgramName:      "party-challenges",
			WebviewGpuPolicy: linux.WebviewGpuPolicyAlways,
		},
	})
	if err != nil {
		log.Fatalf("Error running Wails app: %v", err)
	}

	log.Println("Application exited normally")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
