package socket

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/katajakasa/audiostash/internal/models"
)

// Sender is the outbound half of the dispatcher, the only part most
// components need.
type Sender interface {
	Send(mtype string, message any)
}

// Transport writes raw frames to the server channel.
type Transport interface {
	Write(data []byte) error
}

// Dispatcher serializes outbound envelopes and routes inbound envelopes by
// type. It holds no business state.
type Dispatcher struct {
	mu        sync.Mutex
	transport Transport
	logger    *log.Logger
	open      []func()
	recv      map[string]func(models.Inbound)
}

var _ Sender = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher writing through the given transport.
func NewDispatcher(transport Transport, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		logger:    logger,
		recv:      make(map[string]func(models.Inbound)),
	}
}

// Send wraps message in a {type, message} envelope and writes it out.
// There is no return value: a write failure is only observable as a later
// channel close, which the reconnect flow handles.
func (d *Dispatcher) Send(mtype string, message any) {
	data, err := json.Marshal(models.Envelope{Type: mtype, Message: message})
	if err != nil {
		d.logger.Error("failed to marshal envelope", "type", mtype, "error", err)
		return
	}
	if err := d.transport.Write(data); err != nil {
		d.logger.Warn("channel write failed", "type", mtype, "error", err)
	}
}

// OnOpen registers a callback invoked once per channel-open event, in
// registration order.
func (d *Dispatcher) OnOpen(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = append(d.open, fn)
}

// OnMessage installs the handler for inbound envelopes of the given type,
// displacing any previous handler for that type.
func (d *Dispatcher) OnMessage(mtype string, fn func(models.Inbound)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recv[mtype] = fn
}

// DispatchOpen invokes the registered open handlers. Called by the
// transport on every successful (re)connect.
func (d *Dispatcher) DispatchOpen() {
	d.mu.Lock()
	fns := make([]func(), len(d.open))
	copy(fns, d.open)
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Dispatch parses a raw inbound frame and invokes the handler registered
// for its type. Frames with no registered handler are dropped.
func (d *Dispatcher) Dispatch(raw []byte) {
	var msg models.Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.logger.Warn("dropping unparseable frame", "error", err)
		return
	}

	d.mu.Lock()
	fn, ok := d.recv[msg.Type]
	d.mu.Unlock()

	if !ok {
		d.logger.Debug("no handler for message type", "type", msg.Type)
		return
	}
	fn(msg)
}
