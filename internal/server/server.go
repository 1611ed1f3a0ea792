package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"treasure-route-planner/internal/fasttravel"
	"treasure-route-planner/internal/handlers"
	"treasure-route-planner/internal/routing"
	"treasure-route-planner/internal/sqlite"
	"treasure-route-planner/internal/tracker"
	"treasure-route-planner/web"
)

// Config holds server configuration.
type Config struct {
	Addr   string // e.g. "127.0.0.1:8080" or "127.0.0.1:0" for a random port
	DBPath string // empty for the default under the user home
}

// Server wraps the HTTP server and all dependencies.
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	store      *sqlite.Store
	listener   net.Listener
	addr       string
}

// logObserver reports route events to the log; the embedded frontend polls
// state rather than listening for pushes.
type logObserver struct{}

func (logObserver) RouteOptimized(targetCount int) {
	log.Printf("[EVENT] Route optimized: targets=%d", targetCount)
}

func (logObserver) RouteReset() {
	log.Printf("[EVENT] Route reset")
}

// New creates and initializes a new server (does not start it).
func New(cfg Config) (*Server, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".treasure-route-planner", sqlite.DefaultDBFileName)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}

	ctx := context.Background()

	catalog := fasttravel.NewCatalog(store.Anchors(), nil)
	if err := catalog.Load(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load anchors: %w", err)
	}
	if len(catalog.Areas()) == 0 {
		log.Printf("[SERVER] Empty anchor catalog, seeding defaults")
		if err := catalog.Seed(ctx, fasttravel.DefaultAnchors()); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed anchors: %w", err)
		}
	}

	location := fasttravel.NewManualLocation()
	optimizer := routing.NewOptimizer(routing.DefaultCostModel())
	planner := routing.NewPlanner(optimizer, catalog, location)

	trk := tracker.New(planner, store.Coordinates(), logObserver{})
	if err := trk.Load(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load tracker state: %w", err)
	}

	templates, err := loadTemplates(web.Templates)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	handler := &handlers.Handler{
		Tracker:   trk,
		Catalog:   catalog,
		Location:  location,
		Templates: templates,
	}

	mux := setupRoutes(handler, web.Static)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		store:      store,
		addr:       cfg.Addr,
	}, nil
}

// Start starts the server and returns the actual address (useful for a
// random port).
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("[SERVER] Starting on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("[SERVER] Serve error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.store.Close()
}

func loadTemplates(templatesFS fs.FS) (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}

// setupRoutes configures all HTTP routes.
func setupRoutes(handler *handlers.Handler, staticFS fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-filesystem: %v", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSubFS))))

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)

	mux.HandleFunc("/api/v1/coordinates", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.HandleListCoordinates(w, r)
		case http.MethodPost:
			handler.HandleAddCoordinate(w, r)
		case http.MethodDelete:
			handler.HandleClearCoordinates(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/coordinates/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleImportCoordinates(w, r)
	})

	mux.HandleFunc("/api/v1/coordinates/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/coordinates/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/import") {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		handler.HandleCoordinateAction(w, r)
	})

	mux.HandleFunc("/api/v1/route", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleGetRoute(w, r)
	})

	mux.HandleFunc("/api/v1/route/optimize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleOptimizeRoute(w, r)
	})

	mux.HandleFunc("/api/v1/route/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleResetRoute(w, r)
	})

	mux.HandleFunc("/api/v1/anchors", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleListAnchors(w, r)
	})

	mux.HandleFunc("/api/v1/location", handler.HandleSetLocation)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		handler.HandleIndexPage(w, r)
	})

	return mux
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (Wails webview and local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") ||
			strings.HasPrefix(origin, "wails://") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
