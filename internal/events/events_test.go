package events

import "testing"

func TestBus(t *testing.T) {
	t.Run("DeliversInSubscriptionOrder", func(t *testing.T) {
		bus := NewBus[SyncSignal]()

		var got []int
		bus.Subscribe(func(SyncSignal) { got = append(got, 1) })
		bus.Subscribe(func(SyncSignal) { got = append(got, 2) })
		bus.Subscribe(func(SyncSignal) { got = append(got, 3) })

		bus.Publish(SyncStarted)

		if len(got) != 3 {
			t.Fatalf("expected 3 deliveries, got %d", len(got))
		}
		for i, v := range got {
			if v != i+1 {
				t.Errorf("delivery %d went to subscriber %d", i, v)
			}
		}
	})

	t.Run("DeliversSignalValue", func(t *testing.T) {
		bus := NewBus[AuthSignal]()

		var got []AuthSignal
		bus.Subscribe(func(s AuthSignal) { got = append(got, s) })

		bus.Publish(LoginSuccess)
		bus.Publish(SessionTimeout)

		if len(got) != 2 || got[0] != LoginSuccess || got[1] != SessionTimeout {
			t.Errorf("unexpected signals: %v", got)
		}
	})

	t.Run("UnsubscribeStopsDelivery", func(t *testing.T) {
		bus := NewBus[PlaylistSignal]()

		count := 0
		unsubscribe := bus.Subscribe(func(PlaylistSignal) { count++ })

		bus.Publish(PlaylistRefresh)
		unsubscribe()
		bus.Publish(PlaylistRefresh)

		if count != 1 {
			t.Errorf("expected 1 delivery, got %d", count)
		}
	})

	t.Run("UnsubscribeTwiceIsHarmless", func(t *testing.T) {
		bus := NewBus[SyncSignal]()
		unsubscribe := bus.Subscribe(func(SyncSignal) {})
		unsubscribe()
		unsubscribe()
		bus.Publish(SyncFinished)
	})

	t.Run("UnsubscribeLeavesOthersAlive", func(t *testing.T) {
		bus := NewBus[SyncSignal]()

		count := 0
		unsubscribe := bus.Subscribe(func(SyncSignal) { t.Error("dead subscriber invoked") })
		bus.Subscribe(func(SyncSignal) { count++ })

		unsubscribe()
		bus.Publish(SyncNewData)

		if count != 1 {
			t.Errorf("expected surviving subscriber to fire once, got %d", count)
		}
	})
}

func TestSignalStrings(t *testing.T) {
	cases := map[string]string{
		LoginSuccess.String():    "auth-login-success",
		SessionTimeout.String():  "auth-session-timeout",
		SyncStarted.String():     "sync-started",
		SyncFinished.String():    "sync-finished",
		SyncNewData.String():     "sync-newdata",
		PlaylistRefresh.String(): "playlist-refresh",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
