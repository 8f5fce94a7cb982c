// Package events provides typed in-process signal buses.
//
// Each signal kind gets its own [Bus]; subscribers receive signals
// synchronously in subscription order and hold an explicit unsubscribe
// handle tied to their own lifetime.
package events

import "sync"

// Auth signals emitted by the auth flow.
type AuthSignal int

const (
	LoginSuccess AuthSignal = iota
	LoginFailed
	LogoutBegin
	LogoutSuccess
	SessionTimeout
)

func (s AuthSignal) String() string {
	switch s {
	case LoginSuccess:
		return "auth-login-success"
	case LoginFailed:
		return "auth-login-failed"
	case LogoutBegin:
		return "auth-logout-begin"
	case LogoutSuccess:
		return "auth-logout-success"
	case SessionTimeout:
		return "auth-session-timeout"
	default:
		return ""
	}
}

// Sync signals emitted by the sync engine.
type SyncSignal int

const (
	SyncStarted SyncSignal = iota
	SyncFinished
	SyncNewData
)

func (s SyncSignal) String() string {
	switch s {
	case SyncStarted:
		return "sync-started"
	case SyncFinished:
		return "sync-finished"
	case SyncNewData:
		return "sync-newdata"
	default:
		return ""
	}
}

// Playlist signals emitted by the scratchpad manager.
type PlaylistSignal int

const (
	PlaylistRefresh PlaylistSignal = iota
)

func (s PlaylistSignal) String() string {
	if s == PlaylistRefresh {
		return "playlist-refresh"
	}
	return ""
}

// Bus fans a signal out to its subscribers. The zero value is unusable;
// construct with [NewBus].
type Bus[T any] struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]func(T)
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns its unsubscribe handle. Calling the
// handle more than once is harmless.
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the signal to every live subscriber in subscription
// order. Delivery is synchronous; subscribers must not block.
func (b *Bus[T]) Publish(signal T) {
	b.mu.Lock()
	fns := make([]func(T), 0, len(b.subs))
	for _, id := range b.order {
		if fn, ok := b.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(signal)
	}
}

// Buses bundles one bus per signal kind for injection into components.
type Buses struct {
	Auth     *Bus[AuthSignal]
	Sync     *Bus[SyncSignal]
	Playlist *Bus[PlaylistSignal]
}

// NewBuses creates the full bus set.
func NewBuses() *Buses {
	return &Buses{
		Auth:     NewBus[AuthSignal](),
		Sync:     NewBus[SyncSignal](),
		Playlist: NewBus[PlaylistSignal](),
	}
}
