package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dnalab/dnachat/pkg/logger"
	_ "modernc.org/sqlite"
)

// Durable record keys. Each key is an independent JSON blob; there is no
// transactional guarantee across keys, so callers revalidate cross-key
// references at startup.
const (
	KeyProfiles        = "model_profiles"
	KeyActiveProfileID = "active_profile_id"
	KeyHistories       = "conversation_histories"
	KeySettings        = "model_settings"
	KeyUserProfile     = "user_profile"
	KeyAPICredential   = "gemini_api_key"
)

// Store is the durable key-value adapter. Pure get/set/remove over JSON
// records; no business logic lives here.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open creates/opens the record database at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single foreground thread of control. One shared connection avoids
	// writer lock contention with SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, log: log}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS records (
			record_key TEXT PRIMARY KEY,
			value_json TEXT NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init store schema: %w", err)
		}
	}
	return nil
}

// Load returns the raw JSON for key, or ok=false when the key is absent.
// Read errors are logged and reported as absent so callers fall back to
// defaults rather than failing startup.
func (s *Store) Load(key string) ([]byte, bool) {
	var raw string
	err := s.db.QueryRow(`SELECT value_json FROM records WHERE record_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.log.Warn("store read failed, treating key as absent", "key", key, "error", err)
		return nil, false
	}
	return []byte(raw), true
}

// LoadJSON decodes the record at key into out. Absent or syntactically
// invalid records yield ok=false (corruption is logged, never surfaced).
func (s *Store) LoadJSON(key string, out interface{}) bool {
	raw, ok := s.Load(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("store record is corrupt, treating key as absent", "key", key, "error", err)
		return false
	}
	return true
}

// SaveJSON marshals value and persists it under key.
func (s *Store) SaveJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO records(record_key, value_json, updated_at_ms) VALUES(?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET value_json = excluded.value_json, updated_at_ms = excluded.updated_at_ms`,
		key, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save record %q: %w", key, err)
	}
	return nil
}

// Remove deletes the record at key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM records WHERE record_key = ?`, key); err != nil {
		return fmt.Errorf("remove record %q: %w", key, err)
	}
	return nil
}
