package auth

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/socket"
)

// Registrar is the handler-registration half of the dispatcher.
type Registrar interface {
	OnMessage(mtype string, fn func(models.Inbound))
}

// Credentials are user-entered login credentials.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Flow drives the auth, login and logout exchanges and updates the
// session. Failures are terminal for the attempt; there is no retry.
type Flow struct {
	mu      sync.Mutex
	sender  socket.Sender
	session *Session
	bus     *events.Bus[events.AuthSignal]
	logger  *log.Logger

	lastError string
}

// NewFlow creates the auth flow over a sender and session.
func NewFlow(sender socket.Sender, session *Session, bus *events.Bus[events.AuthSignal], logger *log.Logger) *Flow {
	return &Flow{sender: sender, session: session, bus: bus, logger: logger}
}

// Setup registers the flow's inbound handlers.
func (f *Flow) Setup(r Registrar) {
	r.OnMessage("auth", f.handleAuth)
	r.OnMessage("login", f.handleLogin)
}

// Authenticate re-validates a restored session id with the server.
// The outcome arrives as a login-success or session-timeout signal.
func (f *Flow) Authenticate() {
	f.sender.Send("auth", map[string]any{"sid": f.session.SID()})
}

// Login sends user-entered credentials. The outcome arrives as a
// login-success or login-failed signal; on failure the server's message is
// retained for LastError.
func (f *Flow) Login(creds Credentials) {
	f.sender.Send("login", creds)
}

// Logout announces logout-begin first so dependents stop before the
// session disappears, then notifies the server and destroys the session.
// No response is expected.
func (f *Flow) Logout() {
	f.bus.Publish(events.LogoutBegin)
	f.sender.Send("logout", map[string]any{})
	f.session.Destroy()
	f.bus.Publish(events.LogoutSuccess)
}

// LastError returns the server-supplied message from the most recent
// failed login.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}

func (f *Flow) handleAuth(msg models.Inbound) {
	if msg.Failed() {
		f.logger.Warn("session re-authentication rejected", "reason", msg.ErrorMessage())
		f.session.Destroy()
		f.bus.Publish(events.SessionTimeout)
		return
	}
	f.establish(msg)
}

func (f *Flow) handleLogin(msg models.Inbound) {
	if msg.Failed() {
		f.mu.Lock()
		f.lastError = msg.ErrorMessage()
		f.mu.Unlock()

		f.logger.Warn("login rejected", "reason", msg.ErrorMessage())
		f.bus.Publish(events.LoginFailed)
		return
	}
	f.establish(msg)
}

// establish creates the session from a successful auth or login response.
func (f *Flow) establish(msg models.Inbound) {
	var data models.AuthData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		f.logger.Error("malformed auth response", "error", err)
		f.bus.Publish(events.SessionTimeout)
		return
	}

	f.session.Create(data.SID, data.UID, data.Level)
	f.logger.Info("authenticated", "uid", data.UID, "level", data.Level)
	f.bus.Publish(events.LoginSuccess)
}
