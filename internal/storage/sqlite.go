package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/tg-messenger/internal/preferences"

	_ "modernc.org/sqlite"
)

// DBFilename is the SQLite database created in the data directory
const DBFilename = "tg-messenger.db"

// SQLiteStorage persists the config record as one row of a key-value table
type SQLiteStorage struct {
	db  *sql.DB
	key string
}

// NewSQLite opens (or creates) the database in dataDir
func NewSQLite(dataDir string) (*SQLiteStorage, error) {
	dir, err := ExpandDir(dataDir)
	if err != nil {
		return nil, err
	}
	return OpenSQLite(filepath.Join(dir, DBFilename))
}

// OpenSQLite opens the database at dbPath and ensures the schema exists
func OpenSQLite(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SQLiteStorage{db: db, key: preferences.RecordKey}, nil
}

// Load reads the record row
func (s *SQLiteStorage) Load() ([]byte, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, preferences.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying config: %w", err)
	}
	return []byte(value), nil
}

// Save replaces the record row
func (s *SQLiteStorage) Save(data []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
	`, s.key, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
