package notifier

import (
	"bytes"
	"strings"
	"testing"
)

func TestNoticeString(t *testing.T) {
	tests := []struct {
		name   string
		notice Notice
		want   string
	}{
		{"warning", Warning("Bot Token is missing"), "⚠️ Bot Token is missing"},
		{"failure", Failure("Telegram Error: %s", "Forbidden"), "❌ Telegram Error: Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.notice.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	n.Notify(Warning("first"))
	n.Notify(Failure("second"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "first") || !strings.HasSuffix(lines[1], "second") {
		t.Errorf("lines = %q", lines)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	if _, ok := r.Last(); ok {
		t.Error("Last() on empty recorder returned ok")
	}

	r.Notify(Warning("a"))
	r.Notify(Failure("b"))

	notices := r.Notices()
	if len(notices) != 2 {
		t.Fatalf("len(Notices()) = %d, want 2", len(notices))
	}

	last, ok := r.Last()
	if !ok || last.Text != "b" || last.Severity != SeverityError {
		t.Errorf("Last() = %+v, %v", last, ok)
	}

	notices[0].Text = "mutated"
	if r.Notices()[0].Text != "a" {
		t.Error("Notices() exposes internal slice")
	}
}
