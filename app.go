package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"treasure-route-planner/internal/server"
)

// App bridges the Wails lifecycle to the internal HTTP server. All real work
// happens server-side; the webview is just a browser pinned to it.
type App struct {
	ctx    context.Context
	server *server.Server
	url    string
}

// NewApp builds the application and brings the internal server up before the
// window exists, so the first navigation already has something to hit.
func NewApp() *App {
	app := &App{}

	srv, err := server.New(server.Config{
		Addr:   "127.0.0.1:0", // let the OS pick a free port
		DBPath: os.Getenv("DB_PATH"),
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	app.server = srv
	app.url = fmt.Sprintf("http://%s", addr)
	log.Printf("Internal HTTP server running at %s", app.url)

	return app
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Swap the embedded loading page for the server UI.
	go func() {
		runtime.WindowExecJS(ctx, fmt.Sprintf(`window.location.href = "%s"`, a.url))
	}()
}

func (a *App) shutdown(ctx context.Context) {
	if a.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}
