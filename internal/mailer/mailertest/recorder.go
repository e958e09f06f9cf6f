// Package mailertest provides a recording mailer.Transport for tests.
package mailertest

import (
	"context"
	"sync"

	"taskboard/backend/internal/mailer"
)

// Recorder keeps every message it is asked to send. Err, when set, is
// returned from Send after the message is recorded.
type Recorder struct {
	mu       sync.Mutex
	messages []mailer.Message
	Err      error
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.Err
}

func (r *Recorder) Messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.messages...)
}

// Last returns the most recent message and whether there was one.
func (r *Recorder) Last() (mailer.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return mailer.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
