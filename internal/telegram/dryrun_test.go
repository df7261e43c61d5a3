package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDryRun_Send(t *testing.T) {
	var buf bytes.Buffer
	d := NewDryRun(&buf)

	receipt, err := d.Send(context.Background(), "T", "42", "héllo")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if receipt == nil {
		t.Fatal("Send() receipt is nil")
	}
	if !receipt.DryRun {
		t.Error("Send() receipt is not marked as dry run")
	}

	out := buf.String()
	if !strings.Contains(out, "Message to 42") || !strings.Contains(out, "héllo") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "(Length: 5 characters)") {
		t.Errorf("output does not count runes: %q", out)
	}
}

func TestDryRun_MissingCredentials(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewDryRun(&buf).Send(context.Background(), "", "42", "hi")

	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Send() error = %v, want ErrMissingCredentials", err)
	}
	if buf.Len() != 0 {
		t.Errorf("dry run printed on invalid input: %q", buf.String())
	}
}
