package messenger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/tg-messenger/internal/messagelog"
	"github.com/pfrederiksen/tg-messenger/internal/notifier"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
	"github.com/pfrederiksen/tg-messenger/internal/telegram"
)

type memoryStorage struct {
	mu      sync.Mutex
	data    []byte
	saveErr error
}

func (m *memoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, preferences.ErrNotFound
	}
	return m.data, nil
}

func (m *memoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

type sentMessage struct {
	token, chatID, text string
}

type fakeSender struct {
	mu    sync.Mutex
	calls []sentMessage
	err   error
	gate  chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, token, chatID, text string) (*telegram.Receipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sentMessage{token: token, chatID: chatID, text: text})
	gate := f.gate
	id := int64(len(f.calls))
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &telegram.Receipt{MessageID: id}, nil
}

func (f *fakeSender) Calls() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.calls...)
}

var fixedNow = time.Date(2026, 3, 1, 9, 5, 0, 0, time.Local)

type fixture struct {
	ctrl    *Controller
	store   *preferences.Store
	backend *memoryStorage
	sender  *fakeSender
	notices *notifier.Recorder
}

func newFixture(t *testing.T, cfg preferences.AppConfig, opts ...Option) *fixture {
	t.Helper()

	data, err := cfg.ToJSON()
	require.NoError(t, err)

	backend := &memoryStorage{data: data}
	store := preferences.NewStore(backend)
	store.Load()

	f := &fixture{
		store:   store,
		backend: backend,
		sender:  &fakeSender{},
		notices: notifier.NewRecorder(),
	}
	opts = append([]Option{WithNotifier(f.notices), WithClock(func() time.Time { return fixedNow })}, opts...)
	f.ctrl = New(store, f.sender, opts...)
	return f
}

func configWithBob(token string) preferences.AppConfig {
	return preferences.AppConfig{
		BotToken: token,
		Recipients: []preferences.Recipient{
			{ID: "42", Name: "Bob", LastMessage: "old", LastTime: "08:00"},
			{ID: preferences.SavedMessagesID, Name: "Saved Messages"},
		},
	}
}

func TestNew_ActiveChatIsFirstRecipient(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	assert.Equal(t, "42", f.ctrl.ActiveChatID())

	empty := newFixture(t, preferences.AppConfig{Recipients: []preferences.Recipient{}})
	assert.Equal(t, "", empty.ctrl.ActiveChatID())
	_, ok := empty.ctrl.ActiveRecipient()
	assert.False(t, ok)
}

func TestSendText_Success(t *testing.T) {
	f := newFixture(t, configWithBob("T"))

	receipt, err := f.ctrl.SendText(context.Background(), "hi")
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.Equal(t, []sentMessage{{token: "T", chatID: "42", text: "hi"}}, f.sender.Calls())

	msgs := slices.Collect(f.ctrl.Log().All())
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].ChatID)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, messagelog.SenderMe, msgs[0].Sender)
	assert.Equal(t, fixedNow.UnixMilli(), msgs[0].Timestamp)

	bob, ok := f.ctrl.Config().Recipient("42")
	require.True(t, ok)
	assert.Equal(t, "hi", bob.LastMessage)
	assert.Equal(t, "09:05", bob.LastTime)

	// persisted, not only in memory
	reloaded := preferences.NewStore(f.backend).Load()
	bob, _ = reloaded.Recipient("42")
	assert.Equal(t, "hi", bob.LastMessage)

	assert.Empty(t, f.notices.Notices())
	assert.Equal(t, 0, f.ctrl.InFlight())
}

func TestSendText_DryRunLeavesRecipient(t *testing.T) {
	data, err := configWithBob("T").ToJSON()
	require.NoError(t, err)
	backend := &memoryStorage{data: data}
	store := preferences.NewStore(backend)
	store.Load()

	var out bytes.Buffer
	ctrl := New(store, telegram.NewDryRun(&out), WithClock(func() time.Time { return fixedNow }))

	receipt, err := ctrl.SendText(context.Background(), "test message")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.DryRun)
	assert.Contains(t, out.String(), "test message")

	// echoed in the log, but nothing delivered so the contact keeps its preview
	assert.Equal(t, 1, ctrl.Log().Len())
	bob, _ := ctrl.Config().Recipient("42")
	assert.Equal(t, "old", bob.LastMessage)
	assert.Equal(t, "08:00", bob.LastTime)

	reloaded := preferences.NewStore(backend).Load()
	bob, _ = reloaded.Recipient("42")
	assert.Equal(t, "old", bob.LastMessage)
}

func TestSendText_ProviderRejected(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.sender.err = &telegram.SendError{Kind: telegram.ErrProviderRejected, Description: "Forbidden"}

	_, err := f.ctrl.SendText(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, telegram.ErrProviderRejected)
	assert.Equal(t, "Forbidden", err.Error())

	// the echoed message is kept
	assert.Equal(t, 1, f.ctrl.Log().Len())

	bob, _ := f.ctrl.Config().Recipient("42")
	assert.Equal(t, "old", bob.LastMessage)
	assert.Equal(t, "08:00", bob.LastTime)

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notifier.SeverityError, last.Severity)
	assert.Equal(t, "Telegram Error: Forbidden", last.Text)
}

func TestSendText_TransportFailure(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.sender.err = &telegram.SendError{Kind: telegram.ErrTransport, Err: errors.New("connection refused")}

	_, err := f.ctrl.SendText(context.Background(), "hi")
	assert.ErrorIs(t, err, telegram.ErrTransport)
	assert.Equal(t, 1, f.ctrl.Log().Len())
}

func TestSendText_MissingToken(t *testing.T) {
	f := newFixture(t, configWithBob(""))

	_, err := f.ctrl.SendText(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, telegram.ErrMissingCredentials)

	assert.Empty(t, f.sender.Calls())
	assert.Equal(t, 0, f.ctrl.Log().Len())
	assert.True(t, f.ctrl.TokenPromptOpen())

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notifier.SeverityWarning, last.Severity)
	assert.Equal(t, "Bot Token is missing or Recipient not selected.", last.Text)
}

func TestSendText_NoActiveChat(t *testing.T) {
	f := newFixture(t, preferences.AppConfig{BotToken: "T", Recipients: []preferences.Recipient{}})

	_, err := f.ctrl.SendText(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoActiveChat)
	assert.Empty(t, f.sender.Calls())
	assert.Equal(t, 0, f.ctrl.Log().Len())
	assert.False(t, f.ctrl.TokenPromptOpen())
}

func TestSendText_HTMLPreview(t *testing.T) {
	f := newFixture(t, configWithBob("T"), WithParseMode(telegram.ParseModeHTML))

	_, err := f.ctrl.SendText(context.Background(), "<b>hello</b> there")
	require.NoError(t, err)

	assert.Equal(t, "<b>hello</b> there", f.sender.Calls()[0].text)
	bob, _ := f.ctrl.Config().Recipient("42")
	assert.Equal(t, "hello there", bob.LastMessage)
}

func TestSendText_SaveFailureIsReported(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.backend.saveErr = errors.New("disk full")

	receipt, err := f.ctrl.SendText(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotNil(t, receipt)

	bob, _ := f.ctrl.Config().Recipient("42")
	assert.Equal(t, "hi", bob.LastMessage)

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notifier.SeverityError, last.Severity)
	assert.Contains(t, last.Text, "disk full")
}

func TestDispatch_EchoesBeforeAwait(t *testing.T) {
	f := newFixture(t, configWithBob("T"))

	pending, err := f.ctrl.Dispatch("hi")
	require.NoError(t, err)

	assert.Equal(t, 1, f.ctrl.Log().Len())
	assert.Equal(t, 1, f.ctrl.InFlight())
	assert.Empty(t, f.sender.Calls())
	assert.Equal(t, "hi", pending.Message().Text)

	_, err = pending.Await(context.Background())
	require.NoError(t, err)

	// a second Await does not send again
	_, err = pending.Await(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.sender.Calls(), 1)
	assert.Equal(t, 0, f.ctrl.InFlight())
}

func TestDispatch_OverlappingSends(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.sender.gate = make(chan struct{})

	first, err := f.ctrl.Dispatch("one")
	require.NoError(t, err)
	second, err := f.ctrl.Dispatch("two")
	require.NoError(t, err)

	assert.Equal(t, 2, f.ctrl.Log().Len())
	assert.Equal(t, 2, f.ctrl.InFlight())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []*PendingSend{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.Await(context.Background())
		}()
	}
	close(f.sender.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, f.sender.Calls(), 2)
	assert.Equal(t, 0, f.ctrl.InFlight())

	bob, _ := f.ctrl.Config().Recipient("42")
	assert.Contains(t, []string{"one", "two"}, bob.LastMessage)
}

func TestAwait_Cancelled(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.sender.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ctrl.SendText(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.ctrl.Log().Len())
}

func TestMessages_ActiveChatOnly(t *testing.T) {
	f := newFixture(t, configWithBob("T"))

	_, err := f.ctrl.SendText(context.Background(), "to bob")
	require.NoError(t, err)

	f.ctrl.SelectChat(preferences.SavedMessagesID)
	_, err = f.ctrl.SendText(context.Background(), "to me")
	require.NoError(t, err)

	texts := func() []string {
		var out []string
		for m := range f.ctrl.Messages() {
			out = append(out, m.Text)
		}
		return out
	}

	assert.Equal(t, []string{"to me"}, texts())
	f.ctrl.SelectChat("42")
	assert.Equal(t, []string{"to bob"}, texts())
}

func TestAddContact(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.ctrl.OpenAddContact()

	r, err := f.ctrl.AddContact("  Alice ", "+1 (555) -42abc")
	require.NoError(t, err)

	assert.Equal(t, "1555-42", r.ID)
	assert.Equal(t, "Alice", r.Name)
	assert.Equal(t, "Added newly", r.LastMessage)
	assert.Equal(t, "09:05", r.LastTime)

	cfg := f.ctrl.Config()
	require.Len(t, cfg.Recipients, 3)
	assert.Equal(t, "1555-42", cfg.Recipients[0].ID)
	assert.Equal(t, "1555-42", f.ctrl.ActiveChatID())
	assert.False(t, f.ctrl.AddContactOpen())
}

func TestAddContact_Duplicate(t *testing.T) {
	f := newFixture(t, configWithBob("T"))
	f.ctrl.OpenAddContact()

	_, err := f.ctrl.AddContact("Bob again", "42")
	assert.ErrorIs(t, err, preferences.ErrDuplicateRecipient)

	assert.Len(t, f.ctrl.Config().Recipients, 2)
	assert.True(t, f.ctrl.AddContactOpen())

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Chat ID already exists in your contacts.", last.Text)
}

func TestAddContact_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		chatID string
	}{
		{name: "empty name", title: " ", chatID: "7"},
		{name: "id without digits", title: "Eve", chatID: "abc"},
		{name: "empty id", title: "Eve", chatID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, configWithBob("T"))
			_, err := f.ctrl.AddContact(tt.title, tt.chatID)
			assert.ErrorIs(t, err, ErrInvalidContact)
			assert.Len(t, f.ctrl.Config().Recipients, 2)
		})
	}
}

func TestRemoveContact_ActiveChat(t *testing.T) {
	f := newFixture(t, configWithBob("T"))

	_, err := f.ctrl.SendText(context.Background(), "hi")
	require.NoError(t, err)

	f.ctrl.RemoveContact("42")

	assert.False(t, f.ctrl.Config().HasRecipient("42"))
	assert.Equal(t, "42", f.ctrl.ActiveChatID())
	_, ok := f.ctrl.ActiveRecipient()
	assert.False(t, ok)
	assert.Equal(t, 1, f.ctrl.Log().Len())

	// unknown id is a no-op
	f.ctrl.RemoveContact("nope")
	assert.Len(t, f.ctrl.Config().Recipients, 1)
}

func TestSaveToken(t *testing.T) {
	f := newFixture(t, configWithBob(""))
	f.ctrl.OpenTokenPrompt()
	require.False(t, f.ctrl.BotConfigured())

	f.ctrl.SaveToken("123:abc")

	assert.True(t, f.ctrl.BotConfigured())
	assert.False(t, f.ctrl.TokenPromptOpen())
	assert.Equal(t, "123:abc", preferences.NewStore(f.backend).Load().BotToken)

	_, err := f.ctrl.SendText(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", f.sender.Calls()[0].token)
}

func TestFilter(t *testing.T) {
	recipients := []preferences.Recipient{
		{ID: "42", Name: "Bob"},
		{ID: "-100777", Name: "Alice's Group"},
		{ID: preferences.SavedMessagesID, Name: "Saved Messages"},
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"42", "-100777", preferences.SavedMessagesID}},
		{term: "ali", want: []string{"-100777"}},
		{term: "SAVED", want: []string{preferences.SavedMessagesID}},
		{term: "42", want: []string{"42"}},
		{term: "-100", want: []string{"-100777"}},
		{term: "s", want: []string{"-100777", preferences.SavedMessagesID}},
		{term: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := []string{}
			for _, r := range Filter(recipients, tt.term) {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeChatID(t *testing.T) {
	assert.Equal(t, "-100123", SanitizeChatID("-100 123"))
	assert.Equal(t, "", SanitizeChatID("abc"))
	assert.Equal(t, "42", SanitizeChatID("42"))
}
