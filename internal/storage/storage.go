package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/tg-messenger/internal/preferences"
)

// ExpandDir expands a leading ~/ and creates the directory if it doesn't exist
func ExpandDir(dataDir string) (string, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dataDir, nil
}

// FileStorage persists the config record as a JSON file
type FileStorage struct {
	path string
}

// New creates a FileStorage rooted at dataDir
func New(dataDir string) (*FileStorage, error) {
	dir, err := ExpandDir(dataDir)
	if err != nil {
		return nil, err
	}

	return &FileStorage{
		path: filepath.Join(dir, preferences.RecordKey+".json"),
	}, nil
}

// Path returns the file backing the record
func (s *FileStorage) Path() string {
	return s.path
}

// Load reads the record from disk
func (s *FileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, preferences.ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return data, nil
}

// Save overwrites the record. The file holds the bot token so it is owner-only.
func (s *FileStorage) Save(data []byte) error {
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
