package state

import (
	"sync"
	"time"
)

type Phase int

const (
	IDLE Phase = iota
	RUNNING
)

func (p Phase) String() string {
	switch p {
	case IDLE:
		return "idle"
	case RUNNING:
		return "running"
	default:
		return "unknown"
	}
}

// Activation is the state shared by the input handler, the inactivity timer
// and the animation session.
type Activation struct {
	// UserActive is set by input events and cleared on inactivity expiry.
	UserActive bool
	// SessionRunning is true only while an animation session is inside the engine.
	SessionRunning bool

	LastActivity time.Time
	Sessions     uint64
}

type Store struct {
	mu    sync.RWMutex
	state Activation
}

func NewStore() *Store {
	return &Store{}
}

func (store *Store) Snapshot() Activation {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) Phase() Phase {
	if store.SessionRunning() {
		return RUNNING
	}
	return IDLE
}

func (store *Store) MarkActive(now time.Time) {
	store.mu.Lock()
	store.state.UserActive = true
	store.state.LastActivity = now
	store.mu.Unlock()
}

func (store *Store) MarkIdle() {
	store.mu.Lock()
	store.state.UserActive = false
	store.mu.Unlock()
}

func (store *Store) UserActive() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.UserActive
}

func (store *Store) SessionRunning() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.SessionRunning
}

// TryBeginSession marks a session as running. It reports false without
// changing anything when a session is already running.
func (store *Store) TryBeginSession() bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.state.SessionRunning {
		return false
	}
	store.state.SessionRunning = true
	store.state.Sessions++
	return true
}

func (store *Store) EndSession() {
	store.mu.Lock()
	store.state.SessionRunning = false
	store.mu.Unlock()
}
