package preferences

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pfrederiksen/tg-messenger/internal/crypto"
	"github.com/pfrederiksen/tg-messenger/internal/logger"
)

// Store loads and saves the AppConfig through a Storage backend and keeps the
// last loaded or saved snapshot.
type Store struct {
	backend   Storage
	encryptor *crypto.Encryptor

	mu      sync.Mutex
	current AppConfig
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithEncryptor seals the bot token before it reaches the backend
func WithEncryptor(e *crypto.Encryptor) StoreOption {
	return func(s *Store) {
		s.encryptor = e
	}
}

// NewStore creates a store over backend. The snapshot starts as DefaultConfig until Load is called.
func NewStore(backend Storage, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		current: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted config. A missing or unreadable record yields
// DefaultConfig; the failure is logged, never returned.
func (s *Store) Load() AppConfig {
	cfg := s.read()

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	return cfg.Clone()
}

func (s *Store) read() AppConfig {
	data, err := s.backend.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug("No saved config, using defaults", nil)
		} else {
			logger.Warn("Reading saved config failed, using defaults", logger.Fields{"error": err.Error()})
		}
		return DefaultConfig()
	}

	cfg, err := FromJSON(data)
	if err != nil {
		logger.Warn("Failed to parse config, using defaults", logger.Fields{"error": err.Error()})
		return DefaultConfig()
	}

	token, err := s.encryptor.Open(cfg.BotToken)
	if err != nil {
		// Recipients are still usable; only the token has to be entered again
		logger.Warn("Failed to open saved bot token, clearing it", logger.Fields{"error": err.Error()})
		token = ""
	}
	cfg.BotToken = token

	return cfg
}

// Save persists cfg, overwriting any previous record. The snapshot is updated
// even when the backend write fails.
func (s *Store) Save(cfg AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

func (s *Store) saveLocked(cfg AppConfig) error {
	s.current = cfg.Clone()

	out := cfg.Clone()
	sealed, err := s.encryptor.Seal(out.BotToken)
	if err != nil {
		return fmt.Errorf("sealing bot token: %w", err)
	}
	out.BotToken = sealed

	data, err := out.ToJSON()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := s.backend.Save(data); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Current returns a copy of the last loaded or saved config
func (s *Store) Current() AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Update applies mutate to the current config and saves the result.
// If mutate fails nothing is saved and the current config is returned with the error.
func (s *Store) Update(mutate func(AppConfig) (AppConfig, error)) (AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := mutate(s.current.Clone())
	if err != nil {
		return s.current.Clone(), err
	}

	if err := s.saveLocked(next); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}
