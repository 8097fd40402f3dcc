// Package notify delivers user-facing success and error messages.
package notify

import (
	"io"
	"sync"

	"qadmin/internal/log"

	"github.com/fatih/color"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Writer prints one line per message, green for success and red for errors.
type Writer struct {
	W io.Writer
}

func (w Writer) Success(msg string) {
	_, _ = color.New(color.FgGreen).Fprintln(w.W, msg)
}

func (w Writer) Error(msg string) {
	_, _ = color.New(color.FgRed).Fprintln(w.W, msg)
}

// Log sends messages to the log package.
type Log struct{}

func (Log) Success(msg string) { log.Infof("%s", msg) }
func (Log) Error(msg string)   { log.Errorf("%s", msg) }

// Discard drops everything.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

// Message is a recorded notification.
type Message struct {
	Text string
	OK   bool
}

func (m Message) String() string {
	if m.OK {
		return "ok: " + m.Text
	}
	return "error: " + m.Text
}

// Recorder keeps every message; safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(Message{Text: msg, OK: true}) }
func (r *Recorder) Error(msg string)   { r.add(Message{Text: msg, OK: false}) }

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Drain returns the recorded messages and forgets them.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// Last returns the most recent message, or a zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}
	}
	return r.messages[len(r.messages)-1]
}

// Multi fans out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
