package telegram

import (
	"testing"
	"time"
)

func TestTimeLabel(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"afternoon", time.Date(2026, 1, 2, 14, 5, 59, 0, time.Local), "14:05"},
		{"midnight", time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), "00:00"},
		{"single digit hour", time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local), "09:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeLabel(tt.t); got != tt.want {
				t.Errorf("TimeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>bold</b> and <i>italic</i>", "bold and italic"},
		{`<a href="https://example.com">link</a>`, "link"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"plain", "plain"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		parseMode string
		want      string
	}{
		{"plain mode keeps markup", "<b>hi</b>", "", "<b>hi</b>"},
		{"html mode strips markup", "<b>hi</b>", ParseModeHTML, "hi"},
		{"html mode is case insensitive", "<i>x</i>", "html", "x"},
		{"plain text unchanged", "hi", "", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.text, tt.parseMode); got != tt.want {
				t.Errorf("Preview(%q, %q) = %q, want %q", tt.text, tt.parseMode, got, tt.want)
			}
		})
	}
}
