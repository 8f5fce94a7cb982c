package auth

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/shared"
	stubs "github.com/katajakasa/audiostash/internal/testing"
)

func newTestFlow(t *testing.T) (*Flow, *Session, *stubs.SpySender, *stubs.HandlerRecorder, *events.Bus[events.AuthSignal]) {
	t.Helper()

	session, _ := newTestSession()
	sender := &stubs.SpySender{}
	bus := events.NewBus[events.AuthSignal]()
	flow := NewFlow(sender, session, bus, shared.NewLogger(io.Discard))

	recorder := stubs.NewHandlerRecorder()
	flow.Setup(recorder)

	return flow, session, sender, recorder, bus
}

func inbound(t *testing.T, mtype string, errFlag int, data any) models.Inbound {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal data: %v", err)
	}
	return models.Inbound{Type: mtype, Error: errFlag, Data: raw}
}

func TestLogin(t *testing.T) {
	t.Run("SendsCredentials", func(t *testing.T) {
		flow, _, sender, _, _ := newTestFlow(t)

		flow.Login(Credentials{Username: "kat", Password: "hunter2"})

		last, ok := sender.Last()
		if !ok || last.Type != "login" {
			t.Fatalf("expected login envelope, got %+v", last)
		}
		creds, ok := last.Message.(Credentials)
		if !ok || creds.Username != "kat" {
			t.Errorf("unexpected credentials payload: %+v", last.Message)
		}
	})

	t.Run("SuccessCreatesSessionAndSignals", func(t *testing.T) {
		_, session, _, recorder, bus := newTestFlow(t)

		var got []events.AuthSignal
		bus.Subscribe(func(s events.AuthSignal) { got = append(got, s) })

		err := recorder.Handle("login", inbound(t, "login", 0, models.AuthData{SID: "deadbeef", UID: 7, Level: 1}))
		if err != nil {
			t.Fatal(err)
		}

		if !session.IsAuthenticated() {
			t.Error("expected authenticated session")
		}
		if session.SID() != "deadbeef" || session.Level() != 1 {
			t.Errorf("unexpected session: sid=%q level=%d", session.SID(), session.Level())
		}
		if len(got) != 1 || got[0] != events.LoginSuccess {
			t.Errorf("expected login-success signal, got %v", got)
		}
	})

	t.Run("FailureRetainsServerMessage", func(t *testing.T) {
		flow, session, _, recorder, bus := newTestFlow(t)

		var got []events.AuthSignal
		bus.Subscribe(func(s events.AuthSignal) { got = append(got, s) })

		err := recorder.Handle("login", inbound(t, "login", 1, models.ErrorData{Code: 401, Message: "Incorrect username or password"}))
		if err != nil {
			t.Fatal(err)
		}

		if session.IsAuthenticated() {
			t.Error("failed login must not authenticate")
		}
		if flow.LastError() != "Incorrect username or password" {
			t.Errorf("unexpected last error: %q", flow.LastError())
		}
		if len(got) != 1 || got[0] != events.LoginFailed {
			t.Errorf("expected login-failed signal, got %v", got)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("SendsStoredSessionID", func(t *testing.T) {
		flow, session, sender, _, _ := newTestFlow(t)
		session.Create("deadbeef", 0, 0)
		sender.Reset()

		flow.Authenticate()

		last, ok := sender.Last()
		if !ok || last.Type != "auth" {
			t.Fatalf("expected auth envelope, got %+v", last)
		}
		payload, ok := last.Message.(map[string]any)
		if !ok || payload["sid"] != "deadbeef" {
			t.Errorf("unexpected auth payload: %+v", last.Message)
		}
	})

	t.Run("SuccessRederivesUserAndLevel", func(t *testing.T) {
		_, session, _, recorder, bus := newTestFlow(t)
		session.Create("deadbeef", 0, 0)

		var got []events.AuthSignal
		bus.Subscribe(func(s events.AuthSignal) { got = append(got, s) })

		err := recorder.Handle("auth", inbound(t, "auth", 0, models.AuthData{SID: "deadbeef", UID: 7, Level: 2}))
		if err != nil {
			t.Fatal(err)
		}

		if session.UID() != 7 || session.Level() != 2 {
			t.Errorf("uid/level not re-derived: uid=%d level=%d", session.UID(), session.Level())
		}
		if len(got) != 1 || got[0] != events.LoginSuccess {
			t.Errorf("expected login-success signal, got %v", got)
		}
	})

	t.Run("FailureDestroysSessionAndSignalsTimeout", func(t *testing.T) {
		_, session, _, recorder, bus := newTestFlow(t)
		session.Create("stale", 0, 0)

		var got []events.AuthSignal
		bus.Subscribe(func(s events.AuthSignal) { got = append(got, s) })

		err := recorder.Handle("auth", inbound(t, "auth", 1, models.ErrorData{Code: 403, Message: "Invalid session"}))
		if err != nil {
			t.Fatal(err)
		}

		if session.SID() != "" {
			t.Error("stale session id not destroyed")
		}
		if len(got) != 1 || got[0] != events.SessionTimeout {
			t.Errorf("expected session-timeout signal, got %v", got)
		}
	})
}

func TestLogout(t *testing.T) {
	t.Run("SignalsBeginBeforeSuccess", func(t *testing.T) {
		flow, session, sender, _, bus := newTestFlow(t)
		session.Create("deadbeef", 7, 1)
		sender.Reset()

		var got []events.AuthSignal
		bus.Subscribe(func(s events.AuthSignal) { got = append(got, s) })

		flow.Logout()

		if len(got) != 2 || got[0] != events.LogoutBegin || got[1] != events.LogoutSuccess {
			t.Fatalf("expected begin then success, got %v", got)
		}
		last, ok := sender.Last()
		if !ok || last.Type != "logout" {
			t.Errorf("expected logout notification, got %+v", last)
		}
		if session.IsAuthenticated() || session.SID() != "" {
			t.Error("session survived logout")
		}
	})
}
