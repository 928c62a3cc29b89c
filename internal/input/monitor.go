// Package input watches every input device and turns any activity into a
// "user active" signal plus a re-armed inactivity timer.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var ErrDuplicateHandle = errors.New("device already has a handle")

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Device is one physical input source.
type Device interface {
	Name() string
	Open() error
	Close() error
}

// Handle is the monitor's attachment to one device.
type Handle struct {
	Name   string
	Device Device

	released atomic.Bool
}

func (h *Handle) Released() bool { return h.released.Load() }

func (h *Handle) release() { h.released.Store(true) }

type HandleRegistry interface {
	Register(h *Handle) error
	Unregister(h *Handle)
}

// Armer is the inactivity timer as seen by the monitor.
type Armer interface {
	Arm(d time.Duration) bool
}

type ActivitySink interface {
	MarkActive(now time.Time)
}

// Source delivers devices and their events to a Monitor. Starting a source
// is the registration of the input handler; a Start error is fatal to startup.
type Source interface {
	Name() string
	Start(ctx context.Context, m *Monitor) error
	Stop() error
}

// Monitor is the single handler matching every device. It does no filtering
// on event type, code or value.
type Monitor struct {
	Registry HandleRegistry
	Timer    Armer
	Activity ActivitySink
	Timeout  time.Duration
	Logger   Logger
	Now      func() time.Time

	events atomic.Uint64
}

func NewMonitor(registry HandleRegistry, timer Armer, activity ActivitySink, timeout time.Duration) *Monitor {
	return &Monitor{Registry: registry, Timer: timer, Activity: activity, Timeout: timeout, Now: time.Now}
}

// Connect attaches dev. On failure nothing stays registered and the device
// is left closed; other devices are unaffected.
func (m *Monitor) Connect(dev Device) (*Handle, error) {
	h := &Handle{Name: dev.Name(), Device: dev}
	if err := m.Registry.Register(h); err != nil {
		h.release()
		return nil, fmt.Errorf("register %s: %w", h.Name, err)
	}
	if err := dev.Open(); err != nil {
		m.Registry.Unregister(h)
		h.release()
		return nil, fmt.Errorf("open %s: %w", h.Name, err)
	}
	if m.Logger != nil {
		m.Logger.Infof("input", "connected %s", h.Name)
	}
	return h, nil
}

// Disconnect closes the device and drops its handle. It always succeeds.
func (m *Monitor) Disconnect(h *Handle) {
	if h == nil || h.Released() {
		return
	}
	if err := h.Device.Close(); err != nil && m.Logger != nil {
		m.Logger.Errorf("input", "close %s: %v", h.Name, err)
	}
	m.Registry.Unregister(h)
	h.release()
	if m.Logger != nil {
		m.Logger.Infof("input", "disconnected %s", h.Name)
	}
}

// Event records activity from any device. It never blocks: it re-arms the
// timer and then marks the user active, so an expiry racing with this event
// is either superseded by the re-arm or followed by the active mark.
func (m *Monitor) Event(h *Handle, typ, code uint16, value int32) {
	m.events.Add(1)
	m.Timer.Arm(m.Timeout)
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	m.Activity.MarkActive(now())
}

// Events is the number of events seen since the monitor was created.
func (m *Monitor) Events() uint64 { return m.events.Load() }

// HandleTable is the in-process handle registry.
type HandleTable struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

func NewHandleTable() *HandleTable {
	return &HandleTable{handles: make(map[string]*Handle)}
}

func (t *HandleTable) Register(h *Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handles[h.Name]; ok {
		return ErrDuplicateHandle
	}
	t.handles[h.Name] = h
	return nil
}

func (t *HandleTable) Unregister(h *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.handles[h.Name]; ok && cur == h {
		delete(t.handles, h.Name)
	}
}

func (t *HandleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// Handles returns the registered handles in no particular order.
func (t *HandleTable) Handles() []*Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Handle, 0, len(t.handles))
	for _, h := range t.handles {
		out = append(out, h)
	}
	return out
}
