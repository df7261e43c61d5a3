package notifier

import (
	"fmt"
	"io"
	"sync"
)

// Severity classifies a notice
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is one message for the user
type Notice struct {
	Severity Severity
	Text     string
}

// Warning builds a warning notice
func Warning(format string, args ...interface{}) Notice {
	return Notice{Severity: SeverityWarning, Text: fmt.Sprintf(format, args...)}
}

// Failure builds an error notice
func Failure(format string, args ...interface{}) Notice {
	return Notice{Severity: SeverityError, Text: fmt.Sprintf(format, args...)}
}

// String renders the notice with a severity marker
func (n Notice) String() string {
	if n.Severity == SeverityError {
		return "❌ " + n.Text
	}
	return "⚠️ " + n.Text
}

// Notifier defines the interface for reporting notices to the user
type Notifier interface {
	Notify(n Notice)
}

// WriterNotifier prints each notice on its own line
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify prints the notice
func (n *WriterNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, notice.String())
}

// Recorder keeps every notice in order
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the notice
func (r *Recorder) Notify(notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of everything recorded
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Discard drops every notice
type Discard struct{}

// Notify does nothing
func (Discard) Notify(Notice) {}
