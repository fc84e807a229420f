// Package notify shows short transient status messages after an action, such
// as "Artwork created" or "Failed to logout".
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level is the kind of notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Message is a single notification
type Message struct {
	Level Level
	Text  string
	Link  string
}

// Notifier displays notifications
type Notifier interface {
	Notify(Message)
}

// Success shows a success notification
func Success(n Notifier, text string) {
	n.Notify(Message{Level: LevelSuccess, Text: text})
}

// SuccessWithLink shows a success notification pointing at a follow-up
// command or URL
//
//	notify.SuccessWithLink(n, "Artwork created", "artadmin artworks get "+id)
func SuccessWithLink(n Notifier, text, link string) {
	n.Notify(Message{Level: LevelSuccess, Text: text, Link: link})
}

// Error shows an error notification
func Error(n Notifier, text string) {
	n.Notify(Message{Level: LevelError, Text: text})
}

// Warning shows a warning notification
func Warning(n Notifier, text string) {
	n.Notify(Message{Level: LevelWarning, Text: text})
}

// Info shows an informational notification
func Info(n Notifier, text string) {
	n.Notify(Message{Level: LevelInfo, Text: text})
}

var symbols = map[Level]string{
	LevelSuccess: "✓",
	LevelError:   "✗",
	LevelWarning: "!",
	LevelInfo:    "i",
}

// Writer prints notifications as single lines
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer printing to out
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(m Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	symbol, ok := symbols[m.Level]
	if !ok {
		symbol = "-"
	}

	if m.Link != "" {
		fmt.Fprintf(w.out, "%s %s (%s)\n", symbol, m.Text, m.Link)
		return
	}
	fmt.Fprintf(w.out, "%s %s\n", symbol, m.Text)
}

// Recorder keeps notifications in memory
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Texts returns the recorded texts at level
func (r *Recorder) Texts(level Level) []string {
	var texts []string
	for _, m := range r.Messages() {
		if m.Level == level {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// Nop discards notifications
type Nop struct{}

func (Nop) Notify(Message) {}
