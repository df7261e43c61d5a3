// Package settings loads the runtime configuration of tg-messenger: where the
// recipients record lives, how the bot token is protected, and how the
// Telegram client behaves. Values come from an optional YAML file, then from
// TGM_* environment variables (a .env file in the working directory is read
// first), and finally from command-line flags.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/tg-messenger/internal/logger"
	"github.com/pfrederiksen/tg-messenger/internal/telegram"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendGist   = "gist"
)

const (
	DefaultDataDir    = "~/.local/share/tg-messenger"
	DefaultConfigPath = "~/.config/tg-messenger/config.yaml"
)

// Settings is the runtime configuration
type Settings struct {
	DataDir       string   `yaml:"data_dir"`
	Backend       string   `yaml:"backend"`
	EncryptionKey string   `yaml:"encryption_key"`
	LogLevel      string   `yaml:"log_level"`
	Gist          Gist     `yaml:"gist"`
	Telegram      Telegram `yaml:"telegram"`
}

// Gist holds the GitHub Gist backend settings
type Gist struct {
	ID          string `yaml:"id"`
	GitHubToken string `yaml:"github_token"`
	// APIURL overrides the Gists endpoint, e.g. for GitHub Enterprise
	APIURL string `yaml:"api_url"`
}

// Telegram holds Bot API client settings
type Telegram struct {
	APIBaseURL string `yaml:"api_base_url"`
	ParseMode  string `yaml:"parse_mode"`
}

// Discover loads .env, then the YAML file at path. An empty path means
// DefaultConfigPath, which may be absent.
func Discover(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("settings: load .env: %w", err)
	}

	if path != "" {
		return Load(path)
	}

	path = ExpandHome(DefaultConfigPath)
	s, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No settings file, using defaults", logger.Fields{"path": path})
		return Parse(nil)
	}
	return s, err
}

// Load reads a YAML settings file from path and returns validated Settings
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, applies environment overrides and defaults,
// and validates the result
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings: parse: %w", err)
	}
	s.applyEnv()
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var envOverrides = []struct {
	name  string
	field func(*Settings) *string
}{
	{"TGM_DATA_DIR", func(s *Settings) *string { return &s.DataDir }},
	{"TGM_BACKEND", func(s *Settings) *string { return &s.Backend }},
	{"TGM_GIST_ID", func(s *Settings) *string { return &s.Gist.ID }},
	{"TGM_GITHUB_TOKEN", func(s *Settings) *string { return &s.Gist.GitHubToken }},
	{"TGM_ENCRYPTION_KEY", func(s *Settings) *string { return &s.EncryptionKey }},
	{"TGM_API_BASE_URL", func(s *Settings) *string { return &s.Telegram.APIBaseURL }},
	{"TGM_PARSE_MODE", func(s *Settings) *string { return &s.Telegram.ParseMode }},
	{"TGM_LOG_LEVEL", func(s *Settings) *string { return &s.LogLevel }},
}

func (s *Settings) applyEnv() {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(s) = v
		}
	}
}

func (s *Settings) applyDefaults() {
	if s.DataDir == "" {
		s.DataDir = DefaultDataDir
	}
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.Telegram.APIBaseURL == "" {
		s.Telegram.APIBaseURL = telegram.DefaultAPIBaseURL
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// Validate checks that the settings are consistent. Call it again after
// applying flag overrides.
func (s *Settings) Validate() error {
	var errs []string

	switch s.Backend {
	case BackendFile, BackendSQLite:
	case BackendGist:
		if s.Gist.ID == "" {
			errs = append(errs, "gist.id is required for the gist backend")
		}
		if s.Gist.GitHubToken == "" {
			errs = append(errs, "gist.github_token is required for the gist backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown backend %q (want file, sqlite or gist)", s.Backend))
	}

	if s.Telegram.ParseMode != "" && s.Telegram.ParseMode != telegram.ParseModeHTML {
		errs = append(errs, fmt.Sprintf("unsupported telegram.parse_mode %q (want empty or HTML)", s.Telegram.ParseMode))
	}

	if _, err := logger.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Level returns the parsed log level
func (s *Settings) Level() logger.Level {
	level, err := logger.ParseLevel(s.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
