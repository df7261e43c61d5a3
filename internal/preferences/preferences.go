package preferences

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pfrederiksen/tg-messenger/internal/logger"
)

const (
	// RecordKey names the single durable record holding the AppConfig
	RecordKey = "tg_messenger_v2"

	// SavedMessagesID is the chat ID of the seeded self-addressed contact
	SavedMessagesID = "12345678"
)

var (
	// ErrDuplicateRecipient is returned when adding a recipient whose ID already exists
	ErrDuplicateRecipient = errors.New("chat ID already exists in your contacts")

	// ErrNotFound is returned by a Storage backend that holds no record yet
	ErrNotFound = errors.New("config record not found")

	// ErrMalformedConfig wraps a persisted record that could not be decoded
	ErrMalformedConfig = errors.New("malformed persisted config")
)

// Recipient is a saved chat target
type Recipient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	LastTime    string `json:"lastTime,omitempty"`
}

// AppConfig is the durable aggregate. Recipients are ordered most recently added first.
type AppConfig struct {
	BotToken   string      `json:"botToken"`
	Recipients []Recipient `json:"recipients"`
}

// Storage persists the encoded AppConfig record.
// Load returns ErrNotFound when nothing has been saved yet.
type Storage interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// DefaultConfig returns the configuration used on first start or after an unreadable record
func DefaultConfig() AppConfig {
	return AppConfig{
		BotToken: "",
		Recipients: []Recipient{
			{
				ID:          SavedMessagesID,
				Name:        "Saved Messages",
				LastMessage: "Cloud storage for you",
				LastTime:    "00:00",
			},
		},
	}
}

// Clone returns a deep copy
func (c AppConfig) Clone() AppConfig {
	out := AppConfig{
		BotToken:   c.BotToken,
		Recipients: make([]Recipient, len(c.Recipients)),
	}
	copy(out.Recipients, c.Recipients)
	return out
}

// Recipient looks up a recipient by chat ID
func (c AppConfig) Recipient(id string) (Recipient, bool) {
	for _, r := range c.Recipients {
		if r.ID == id {
			return r, true
		}
	}
	return Recipient{}, false
}

// HasRecipient reports whether a recipient with the chat ID exists
func (c AppConfig) HasRecipient(id string) bool {
	_, ok := c.Recipient(id)
	return ok
}

// AddRecipient returns a config with r prepended.
// It fails with ErrDuplicateRecipient if r.ID is already present.
func (c AppConfig) AddRecipient(r Recipient) (AppConfig, error) {
	if c.HasRecipient(r.ID) {
		return c, fmt.Errorf("adding %s: %w", r.ID, ErrDuplicateRecipient)
	}

	out := AppConfig{
		BotToken:   c.BotToken,
		Recipients: make([]Recipient, 0, len(c.Recipients)+1),
	}
	out.Recipients = append(out.Recipients, r)
	out.Recipients = append(out.Recipients, c.Recipients...)
	return out, nil
}

// RemoveRecipient returns a config without the recipient. Unknown IDs are a no-op.
func (c AppConfig) RemoveRecipient(id string) AppConfig {
	out := AppConfig{
		BotToken:   c.BotToken,
		Recipients: make([]Recipient, 0, len(c.Recipients)),
	}
	for _, r := range c.Recipients {
		if r.ID != id {
			out.Recipients = append(out.Recipients, r)
		}
	}
	return out
}

// UpdateRecipientAfterSend returns a config with the recipient's preview overwritten.
// Unknown IDs are a no-op.
func (c AppConfig) UpdateRecipientAfterSend(id, text, timeLabel string) AppConfig {
	out := c.Clone()
	for i := range out.Recipients {
		if out.Recipients[i].ID == id {
			out.Recipients[i].LastMessage = text
			out.Recipients[i].LastTime = timeLabel
		}
	}
	return out
}

// SetBotToken returns a config with the token replaced verbatim
func (c AppConfig) SetBotToken(token string) AppConfig {
	out := c.Clone()
	out.BotToken = token
	return out
}

// ToJSON marshals the config to JSON
func (c AppConfig) ToJSON() ([]byte, error) {
	if c.Recipients == nil {
		c.Recipients = []Recipient{}
	}
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON unmarshals a config. Failures wrap ErrMalformedConfig.
// Recipients without an id are dropped; the rest of the record is kept.
func FromJSON(data []byte) (AppConfig, error) {
	var raw *AppConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if raw == nil {
		return AppConfig{}, fmt.Errorf("%w: record is null", ErrMalformedConfig)
	}

	cfg := *raw
	kept := make([]Recipient, 0, len(cfg.Recipients))
	for i, r := range cfg.Recipients {
		if r.ID == "" {
			logger.Warn("Skipping saved recipient without id", logger.Fields{"index": i, "name": r.Name})
			continue
		}
		kept = append(kept, r)
	}
	cfg.Recipients = kept
	return cfg, nil
}
