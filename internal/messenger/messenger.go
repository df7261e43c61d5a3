package messenger

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/tg-messenger/internal/logger"
	"github.com/pfrederiksen/tg-messenger/internal/messagelog"
	"github.com/pfrederiksen/tg-messenger/internal/notifier"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
	"github.com/pfrederiksen/tg-messenger/internal/telegram"
)

const (
	noticeSendRejected = "Bot Token is missing or Recipient not selected."
	noticeDuplicate    = "Chat ID already exists in your contacts."
	noticeInvalid      = "Contact name and chat ID are required."

	addedPreview = "Added newly"
)

var (
	// ErrNoActiveChat is returned when sending with no chat selected
	ErrNoActiveChat = errors.New("no chat selected")

	// ErrInvalidContact is returned when a new contact lacks a name or chat ID
	ErrInvalidContact = errors.New("contact name and chat ID are required")
)

// Sender performs the provider call for one message
type Sender interface {
	Send(ctx context.Context, token, chatID, text string) (*telegram.Receipt, error)
}

// Controller mediates user intents against the config store, the message log
// and the sender. Safe for concurrent use.
type Controller struct {
	store     *preferences.Store
	sender    Sender
	notifier  notifier.Notifier
	now       func() time.Time
	parseMode string

	mu        sync.Mutex
	log       messagelog.Log
	activeID  string
	tokenOpen bool
	addOpen   bool
	inFlight  int
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets where user-facing notices go
func WithNotifier(n notifier.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithParseMode tells the controller how sent text is formatted, so previews
// show plain text
func WithParseMode(mode string) Option {
	return func(c *Controller) {
		c.parseMode = mode
	}
}

// New creates a controller over an already loaded store. The first recipient,
// if any, becomes the active chat.
func New(store *preferences.Store, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		sender:   sender,
		notifier: notifier.Discard{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg := store.Current(); len(cfg.Recipients) > 0 {
		c.activeID = cfg.Recipients[0].ID
	}
	return c
}

func (c *Controller) notify(n notifier.Notice) {
	c.notifier.Notify(n)
}

// persist applies mutate through the store. A failed write is logged and
// reported; the in-memory change stands.
func (c *Controller) persist(op string, mutate func(preferences.AppConfig) (preferences.AppConfig, error)) (preferences.AppConfig, error) {
	cfg, err := c.store.Update(mutate)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, preferences.ErrDuplicateRecipient) {
		return cfg, err
	}
	logger.Error("Saving config failed", logger.Fields{"op": op}, err)
	c.notify(notifier.Failure("Saving configuration failed: %v", err))
	return cfg, nil
}

// Config returns the current configuration
func (c *Controller) Config() preferences.AppConfig {
	return c.store.Current()
}

// BotConfigured reports whether a bot token has been saved
func (c *Controller) BotConfigured() bool {
	return c.store.Current().BotToken != ""
}

// SelectChat makes id the active chat. The stores are not touched.
func (c *Controller) SelectChat(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeID = id
}

// ActiveChatID returns the selected chat, or "" if none
func (c *Controller) ActiveChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// ActiveRecipient returns the recipient for the active chat. It is absent when
// nothing is selected or the selected contact was removed.
func (c *Controller) ActiveRecipient() (preferences.Recipient, bool) {
	id := c.ActiveChatID()
	if id == "" {
		return preferences.Recipient{}, false
	}
	return c.store.Current().Recipient(id)
}

// FilterContacts returns the recipients matching term, see Filter
func (c *Controller) FilterContacts(term string) []preferences.Recipient {
	return Filter(c.store.Current().Recipients, term)
}

// Filter keeps recipients whose name contains term case-insensitively or
// whose chat ID contains term literally. Order is preserved; an empty term
// keeps everything.
func Filter(recipients []preferences.Recipient, term string) []preferences.Recipient {
	lower := strings.ToLower(term)
	out := make([]preferences.Recipient, 0, len(recipients))
	for _, r := range recipients {
		if strings.Contains(strings.ToLower(r.Name), lower) || strings.Contains(r.ID, term) {
			out = append(out, r)
		}
	}
	return out
}

// Log returns the session message log
func (c *Controller) Log() messagelog.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

// Messages yields the active chat's messages in log order
func (c *Controller) Messages() iter.Seq[messagelog.Message] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.ForChat(c.activeID)
}

// InFlight returns the number of sends awaiting the provider
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// TokenPromptOpen reports whether the token-entry surface should be shown
func (c *Controller) TokenPromptOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenOpen
}

// OpenTokenPrompt shows the token-entry surface
func (c *Controller) OpenTokenPrompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenOpen = true
}

// CloseTokenPrompt hides the token-entry surface
func (c *Controller) CloseTokenPrompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenOpen = false
}

// AddContactOpen reports whether the add-contact surface should be shown
func (c *Controller) AddContactOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addOpen
}

// OpenAddContact shows the add-contact surface
func (c *Controller) OpenAddContact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addOpen = true
}

// CloseAddContact hides the add-contact surface
func (c *Controller) CloseAddContact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addOpen = false
}

// SanitizeChatID keeps only the characters allowed in a Telegram chat ID: digits and '-'
func SanitizeChatID(id string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, id)
}

// AddContact saves a new recipient, selects it, and closes the add-contact surface
func (c *Controller) AddContact(name, id string) (preferences.Recipient, error) {
	name = strings.TrimSpace(name)
	id = SanitizeChatID(id)
	if name == "" || id == "" {
		c.notify(notifier.Warning(noticeInvalid))
		return preferences.Recipient{}, ErrInvalidContact
	}

	r := preferences.Recipient{
		ID:          id,
		Name:        name,
		LastMessage: addedPreview,
		LastTime:    telegram.TimeLabel(c.now()),
	}

	_, err := c.persist("add_contact", func(cfg preferences.AppConfig) (preferences.AppConfig, error) {
		return cfg.AddRecipient(r)
	})
	if err != nil {
		c.notify(notifier.Warning(noticeDuplicate))
		return preferences.Recipient{}, err
	}

	c.mu.Lock()
	c.activeID = id
	c.addOpen = false
	c.mu.Unlock()

	logger.IncrCounter("contacts.added")
	logger.Info("Contact added", logger.Fields{"chat_id": id})
	return r, nil
}

// RemoveContact deletes a recipient. Unknown IDs are a no-op. Its messages
// stay in the log and the active chat is left as is.
func (c *Controller) RemoveContact(id string) {
	before := c.store.Current()
	c.persist("remove_contact", func(cfg preferences.AppConfig) (preferences.AppConfig, error) {
		return cfg.RemoveRecipient(id), nil
	})

	if before.HasRecipient(id) {
		logger.IncrCounter("contacts.removed")
		logger.Info("Contact removed", logger.Fields{"chat_id": id})
	}
}

// SaveToken stores the bot token verbatim and closes the token-entry surface.
// The token is not checked against Telegram.
func (c *Controller) SaveToken(token string) {
	c.persist("save_token", func(cfg preferences.AppConfig) (preferences.AppConfig, error) {
		return cfg.SetBotToken(token), nil
	})

	c.mu.Lock()
	c.tokenOpen = false
	c.mu.Unlock()

	logger.Info("Bot token saved", logger.Fields{"configured": token != ""})
}

// PendingSend is a message that has been echoed to the log and is waiting
// for the provider
type PendingSend struct {
	c       *Controller
	token   string
	message messagelog.Message

	once    sync.Once
	receipt *telegram.Receipt
	err     error
}

// Message returns the echoed message
func (p *PendingSend) Message() messagelog.Message {
	return p.message
}

// Dispatch validates a send and appends the outgoing message to the log.
// With no active chat or no bot token nothing is changed, a notice is
// reported, and a missing token opens the token-entry surface.
func (c *Controller) Dispatch(text string) (*PendingSend, error) {
	token := c.store.Current().BotToken

	c.mu.Lock()
	chatID := c.activeID
	if chatID == "" || token == "" {
		if token == "" {
			c.tokenOpen = true
		}
		c.mu.Unlock()

		logger.IncrCounter("send.rejected")
		c.notify(notifier.Warning(noticeSendRejected))
		if token == "" {
			return nil, &telegram.SendError{Kind: telegram.ErrMissingCredentials}
		}
		return nil, ErrNoActiveChat
	}

	msg := messagelog.NewMessage(chatID, text, messagelog.SenderMe, c.now())
	c.log = c.log.Append(msg)
	c.inFlight++
	c.mu.Unlock()

	return &PendingSend{c: c, token: token, message: msg}, nil
}

// Await makes the provider call. On success the recipient's preview is
// updated; on failure a notice is reported and the echoed message is kept.
// Calling Await again returns the first result.
func (p *PendingSend) Await(ctx context.Context) (*telegram.Receipt, error) {
	p.once.Do(func() {
		p.receipt, p.err = p.c.complete(ctx, p.token, p.message)
	})
	return p.receipt, p.err
}

func (c *Controller) complete(ctx context.Context, token string, msg messagelog.Message) (*telegram.Receipt, error) {
	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	start := time.Now()
	receipt, err := c.sender.Send(ctx, token, msg.ChatID, msg.Text)
	logger.RecordTiming("telegram.send", time.Since(start))

	if err != nil {
		logger.IncrCounter("send.failed")
		logger.Error("Send failed", logger.Fields{"chat_id": msg.ChatID, "message_id": msg.ID}, err)
		c.notify(notifier.Failure("Telegram Error: %s", err.Error()))
		return nil, err
	}

	if receipt != nil && receipt.DryRun {
		logger.IncrCounter("send.dry_run")
		logger.Info("Dry run, recipient left unchanged", logger.Fields{"chat_id": msg.ChatID, "message_id": msg.ID})
		return receipt, nil
	}

	preview := telegram.Preview(msg.Text, c.parseMode)
	label := telegram.TimeLabel(c.now())
	c.persist("update_after_send", func(cfg preferences.AppConfig) (preferences.AppConfig, error) {
		return cfg.UpdateRecipientAfterSend(msg.ChatID, preview, label), nil
	})

	logger.IncrCounter("send.ok")
	logger.Info("Message sent", logger.Fields{"chat_id": msg.ChatID, "message_id": msg.ID})
	return receipt, nil
}

// SendText dispatches text to the active chat and waits for the provider
func (c *Controller) SendText(ctx context.Context, text string) (*telegram.Receipt, error) {
	pending, err := c.Dispatch(text)
	if err != nil {
		return nil, err
	}
	return pending.Await(ctx)
}
