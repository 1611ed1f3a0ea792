package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"treasure-route-planner/internal/database"

	_ "modernc.org/sqlite"
)

const DefaultDBFileName = "planner.db"

// Store is a SQLite-backed database.DataStore.
type Store struct {
	db     *sql.DB
	dbPath string

	coordinateRepo database.CoordinateRepository
	anchorRepo     database.AnchorRepository
}

// New opens (creating if needed) the SQLite store at dbPath.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("[SQLITE] Opening database at: %s", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.coordinateRepo = &coordinateRepository{store: store}
	store.anchorRepo = &anchorRepository{store: store}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS coordinates (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		x            REAL NOT NULL,
		y            REAL NOT NULL,
		area_id      TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		owner_name   TEXT NOT NULL DEFAULT '',
		collected    INTEGER NOT NULL DEFAULT 0,
		kind         TEXT NOT NULL DEFAULT 'target',
		anchor_id    INTEGER NOT NULL DEFAULT 0,
		deleted      INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_coordinates_deleted ON coordinates(deleted);
	CREATE INDEX IF NOT EXISTS idx_coordinates_area ON coordinates(area_id);

	CREATE TABLE IF NOT EXISTS anchors (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		area_id     TEXT NOT NULL,
		x           REAL NOT NULL,
		y           REAL NOT NULL,
		travel_cost INTEGER NOT NULL DEFAULT 0,
		UNIQUE(area_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_anchors_area ON anchors(area_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Coordinates returns the coordinate repository.
func (s *Store) Coordinates() database.CoordinateRepository { return s.coordinateRepo }

// Anchors returns the anchor repository.
func (s *Store) Anchors() database.AnchorRepository { return s.anchorRepo }

// DBPath returns the database file path.
func (s *Store) DBPath() string { return s.dbPath }

// Close closes the underlying database.
func (s *Store) Close() error {
	log.Printf("[SQLITE] Closing database")
	return s.db.Close()
}
