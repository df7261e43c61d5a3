package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIBaseURL is the Bot API prefix; the token and method are appended to it
const DefaultAPIBaseURL = "https://api.telegram.org/bot"

// ParseModeHTML asks Telegram to render a subset of HTML tags
const ParseModeHTML = "HTML"

const fallbackDescription = "Failed to send message"

var (
	// ErrMissingCredentials is returned before any network activity when the token or chat ID is empty
	ErrMissingCredentials = errors.New("bot token and chat ID are required")

	// ErrTransport marks failures to reach the provider
	ErrTransport = errors.New("transport error")

	// ErrProviderRejected marks responses whose ok flag is false
	ErrProviderRejected = errors.New("provider rejected message")
)

// SendError describes a failed send. Kind is one of ErrMissingCredentials,
// ErrTransport or ErrProviderRejected; errors.Is matches against it.
type SendError struct {
	Kind        error
	Description string
	Err         error
}

func (e *SendError) Error() string {
	switch e.Kind {
	case ErrProviderRejected:
		return e.Description
	case ErrTransport:
		return fmt.Sprintf("sending request: %v", e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *SendError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Receipt wraps the provider's success payload
type Receipt struct {
	// Raw is the full response body
	Raw json.RawMessage
	// MessageID is result.message_id when present
	MessageID int64
	// DryRun is set when nothing was delivered
	DryRun bool
}

// Client calls the Telegram Bot API sendMessage method. The bot token and
// chat ID are supplied per call, so one Client serves every recipient.
type Client struct {
	baseURL    string
	parseMode  string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL replaces the API prefix, e.g. for a local Bot API server
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithParseMode sets parse_mode on every message. Empty sends plain text.
func WithParseMode(mode string) Option {
	return func(c *Client) {
		c.parseMode = mode
	}
}

// NewClient creates a Telegram client. The HTTP client has no timeout; a send
// runs until the provider answers or the transport fails.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultAPIBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseMode returns the configured parse mode
func (c *Client) ParseMode() string {
	return c.parseMode
}

// Send delivers text to chatID in a single request. There is no retry.
func (c *Client) Send(ctx context.Context, token, chatID, text string) (*Receipt, error) {
	if token == "" || chatID == "" {
		return nil, &SendError{Kind: ErrMissingCredentials}
	}

	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if c.parseMode != "" {
		payload["parse_mode"] = c.parseMode
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	// The token is a single path segment; '/', '?' and '#' must not reshape the URL
	endpoint := fmt.Sprintf("%s%s/sendMessage", c.baseURL, url.PathEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &SendError{Kind: ErrTransport, Err: redact(err, token)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SendError{Kind: ErrTransport, Err: redact(err, token)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SendError{Kind: ErrTransport, Err: fmt.Errorf("reading response: %w", err)}
	}

	// Telegram reports failures as {"ok":false,...} with a 4xx status, so the
	// body decides the outcome rather than the status code
	var result struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &SendError{
			Kind:        ErrProviderRejected,
			Description: fallbackDescription,
			Err:         fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err),
		}
	}

	if !result.OK {
		desc := result.Description
		if desc == "" {
			desc = fallbackDescription
		}
		return nil, &SendError{Kind: ErrProviderRejected, Description: desc}
	}

	receipt := &Receipt{Raw: json.RawMessage(body)}
	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if len(result.Result) > 0 && json.Unmarshal(result.Result, &sent) == nil {
		receipt.MessageID = sent.MessageID
	}
	return receipt, nil
}

// redact strips the bot token from URLs embedded in transport errors
func redact(err error, token string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{
			Op:  ue.Op,
			URL: strings.ReplaceAll(strings.ReplaceAll(ue.URL, url.PathEscape(token), "<token>"), token, "<token>"),
			Err: ue.Err,
		}
	}
	return err
}
