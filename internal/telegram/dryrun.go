package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// DryRun prints what would be sent instead of calling the Bot API
type DryRun struct {
	w io.Writer
}

// NewDryRun creates a dry-run sender writing to w
func NewDryRun(w io.Writer) *DryRun {
	return &DryRun{w: w}
}

// Send validates like Client.Send and prints the message
func (d *DryRun) Send(_ context.Context, token, chatID, text string) (*Receipt, error) {
	if token == "" || chatID == "" {
		return nil, &SendError{Kind: ErrMissingCredentials}
	}

	fmt.Fprintf(d.w, "--- Message to %s ---\n", chatID)
	fmt.Fprintln(d.w, text)
	fmt.Fprintf(d.w, "\n(Length: %d characters)\n\n", len([]rune(text)))

	return &Receipt{Raw: json.RawMessage(`{"ok":true,"dry_run":true}`), DryRun: true}, nil
}
