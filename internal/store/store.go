// Package store persists the agent's durable documents in SQLite: the
// vessel checklists, the processed-message identifier set, the last
// schedule snapshot and the pilot-service status. Each document is a
// whole JSON value upserted under a fixed key, so a crash between
// in-memory mutation and save loses at most the current run's updates.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Document keys.
const (
	DocChecklists    = "checklists"
	DocProcessedIDs  = "processed_ids"
	DocScheduleCache = "schedule_cache"
	DocPilotStatus   = "pilot_status"
)

// Store is the SQLite-backed document store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database and runs migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: wal: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads a document into v. A missing or corrupt document leaves v
// untouched and returns false; callers proceed with their default value.
// Only an I/O-level failure is returned as an error.
func (s *Store) Load(key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("corrupt document, using default", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Save upserts a document as one JSON value.
func (s *Store) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, key, string(raw), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	return nil
}

// DB returns the underlying database connection (for testing or direct access).
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- typed documents ---

// LoadChecklists returns the checklist mapping, empty when absent or corrupt.
func (s *Store) LoadChecklists() map[string]*protocol.Checklist {
	checklists := make(map[string]*protocol.Checklist)
	if _, err := s.Load(DocChecklists, &checklists); err != nil {
		s.logger.Warn("loading checklists failed, starting empty", "error", err)
		return make(map[string]*protocol.Checklist)
	}
	if checklists == nil {
		checklists = make(map[string]*protocol.Checklist)
	}
	return checklists
}

// SaveChecklists persists the whole checklist mapping.
func (s *Store) SaveChecklists(checklists map[string]*protocol.Checklist) error {
	return s.Save(DocChecklists, checklists)
}

// LoadProcessedIDs returns the processed-message identifier set.
func (s *Store) LoadProcessedIDs() map[string]bool {
	var ids []string
	if _, err := s.Load(DocProcessedIDs, &ids); err != nil {
		s.logger.Warn("loading processed ids failed, starting empty", "error", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// SaveProcessedIDs persists the identifier set as a sorted array.
func (s *Store) SaveProcessedIDs(set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return s.Save(DocProcessedIDs, ids)
}

// LoadScheduleCache returns the last fetched schedule snapshot, or nil.
func (s *Store) LoadScheduleCache() *protocol.Snapshot {
	var snap protocol.Snapshot
	ok, err := s.Load(DocScheduleCache, &snap)
	if err != nil {
		s.logger.Warn("loading schedule cache failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &snap
}

// SaveScheduleCache persists a schedule snapshot for degraded runs.
func (s *Store) SaveScheduleCache(snap *protocol.Snapshot) error {
	return s.Save(DocScheduleCache, snap)
}

// LoadPilotStatus returns the last pilot-service status, or nil.
func (s *Store) LoadPilotStatus() *protocol.PilotStatus {
	var status protocol.PilotStatus
	ok, err := s.Load(DocPilotStatus, &status)
	if err != nil || !ok {
		return nil
	}
	return &status
}

// SavePilotStatus persists the pilot-service status.
func (s *Store) SavePilotStatus(status *protocol.PilotStatus) error {
	return s.Save(DocPilotStatus, status)
}
