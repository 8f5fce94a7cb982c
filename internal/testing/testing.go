// package testing contains shared testing utilities
package testing

import (
	"errors"
	"sync"

	"github.com/katajakasa/audiostash/internal/models"
)

// SentMessage is one envelope handed to a [SpySender].
type SentMessage struct {
	Type    string
	Message any
}

// SpySender is a test double for [socket.Sender] that records every
// outbound envelope instead of writing it to a channel.
type SpySender struct {
	mu   sync.Mutex
	sent []SentMessage
}

func (s *SpySender) Send(mtype string, message any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentMessage{Type: mtype, Message: message})
}

// Sent returns a copy of everything recorded so far.
func (s *SpySender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}

// Last returns the most recent envelope, if any.
func (s *SpySender) Last() (SentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return SentMessage{}, false
	}
	return s.sent[len(s.sent)-1], true
}

// Reset forgets everything recorded so far.
func (s *SpySender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

// FakeTransport is a test double for [socket.Transport] capturing raw
// frames.
type FakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	Err    error // returned by Write when set
}

func (t *FakeTransport) Write(data []byte) error {
	if t.Err != nil {
		return t.Err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, append([]byte(nil), data...))
	return nil
}

// Frames returns a copy of every frame written so far.
func (t *FakeTransport) Frames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.frames...)
}

// HandlerRecorder is a test double for the dispatcher's registration
// surface: it captures per-type handlers so tests can feed them inbound
// envelopes directly.
type HandlerRecorder struct {
	handlers map[string]func(models.Inbound)
}

func NewHandlerRecorder() *HandlerRecorder {
	return &HandlerRecorder{handlers: make(map[string]func(models.Inbound))}
}

func (r *HandlerRecorder) OnMessage(mtype string, fn func(models.Inbound)) {
	r.handlers[mtype] = fn
}

// Handle invokes the recorded handler for a type.
func (r *HandlerRecorder) Handle(mtype string, msg models.Inbound) error {
	fn, ok := r.handlers[mtype]
	if !ok {
		return errors.New("no handler registered for " + mtype)
	}
	fn(msg)
	return nil
}
