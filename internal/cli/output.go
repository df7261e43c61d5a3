package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pfrederiksen/tg-messenger/internal/logger"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Result is anything a command can print
type Result interface {
	writeText(w io.Writer, verbose bool) error
}

// ContactsResult lists saved recipients
type ContactsResult struct {
	ActiveChatID  string                  `json:"active_chat_id,omitempty"`
	BotConfigured bool                    `json:"bot_configured"`
	Search        string                  `json:"search,omitempty"`
	Contacts      []preferences.Recipient `json:"contacts"`
	Count         int                     `json:"count"`
}

// SendResult describes a delivered message
type SendResult struct {
	SentAt            time.Time `json:"sent_at"`
	ChatID            string    `json:"chat_id"`
	MessageID         string    `json:"message_id"`
	TelegramMessageID int64     `json:"telegram_message_id,omitempty"`
	Text              string    `json:"text"`
	DryRun            bool      `json:"dry_run,omitempty"`
}

// TokenResult reports the bot token state without revealing it
type TokenResult struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
	Encrypted  bool   `json:"encrypted"`
}

// GistResult reports a newly created Gist
type GistResult struct {
	GistID string `json:"gist_id"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return result.writeText(w, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (r *ContactsResult) writeText(w io.Writer, verbose bool) error {
	if r.Count == 0 {
		if r.Search != "" {
			fmt.Fprintf(w, "No contacts match %q.\n", r.Search)
		} else {
			fmt.Fprintln(w, "No contacts found.")
		}
	}

	for _, c := range r.Contacts {
		marker := " "
		if c.ID == r.ActiveChatID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", marker, c.Name, c.ID)
		if c.LastMessage != "" || c.LastTime != "" {
			fmt.Fprintf(w, "    %s  %s\n", c.LastTime, c.LastMessage)
		}
		if verbose && c.Avatar != "" {
			fmt.Fprintf(w, "    Avatar: %s\n", c.Avatar)
		}
	}

	if r.Count > 0 {
		fmt.Fprintf(w, "\nTotal: %d contacts\n", r.Count)
	}
	if !r.BotConfigured {
		fmt.Fprintln(w, "\nBot token needed: run 'tg-messenger token set'.")
	}
	return nil
}

func (r *SendResult) writeText(w io.Writer, verbose bool) error {
	if r.DryRun {
		fmt.Fprintf(w, "Dry run: message to %s not sent.\n", r.ChatID)
	} else {
		fmt.Fprintf(w, "Sent to %s at %s\n", r.ChatID, r.SentAt.Local().Format("15:04"))
	}
	if verbose {
		fmt.Fprintf(w, "  ID: %s\n", r.MessageID)
		if r.TelegramMessageID != 0 {
			fmt.Fprintf(w, "  Telegram message ID: %d\n", r.TelegramMessageID)
		}
	}
	return nil
}

func (r *TokenResult) writeText(w io.Writer, verbose bool) error {
	if !r.Configured {
		fmt.Fprintln(w, "Bot token: not set")
		return nil
	}
	fmt.Fprintf(w, "Bot token: %s\n", r.Masked)
	if verbose {
		fmt.Fprintf(w, "  Encrypted at rest: %t\n", r.Encrypted)
	}
	return nil
}

func (r *GistResult) writeText(w io.Writer, _ bool) error {
	fmt.Fprintf(w, "Created gist %s\n", r.GistID)
	fmt.Fprintln(w, "Use it with: --backend gist and TGM_GIST_ID="+r.GistID)
	return nil
}

// writeMetrics prints counters and timings collected during the run
func writeMetrics(w io.Writer, snap logger.Snapshot) {
	if len(snap.Counters) == 0 && len(snap.Timings) == 0 {
		return
	}

	fmt.Fprintln(w, "\nMetrics:")
	names := make([]string, 0, len(snap.Counters))
	for name := range snap.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, snap.Counters[name])
	}

	names = names[:0]
	for name := range snap.Timings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := snap.Timings[name]
		fmt.Fprintf(w, "  %s: count=%d avg=%s max=%s\n", name, t.Count, t.Average, t.Max)
	}
}
