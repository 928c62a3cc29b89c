package input

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// TermSource turns terminal key presses and mouse events into input events.
// It stands in for real input devices when running in a terminal.
type TermSource struct {
	Screen tcell.Screen
	Logger Logger

	// OnQuit is called for Ctrl-C, Escape or 'q'.
	OnQuit   func()
	OnResize func()

	monitor *Monitor
	handle  *Handle
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

func NewTermSource(screen tcell.Screen) *TermSource {
	return &TermSource{Screen: screen}
}

func (s *TermSource) Name() string { return "terminal" }

func (s *TermSource) Start(ctx context.Context, m *Monitor) error {
	h, err := m.Connect(termDevice{})
	if err != nil {
		return err
	}
	s.monitor = m
	s.handle = h
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.poll()
	}()
	return nil
}

// Stop wakes the poll loop, waits for it and disconnects the terminal.
func (s *TermSource) Stop() error {
	s.mu.Lock()
	if s.stopped || s.handle == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	_ = s.Screen.PostEvent(tcell.NewEventInterrupt(nil))
	s.wg.Wait()
	s.monitor.Disconnect(s.handle)
	return nil
}

func (s *TermSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// poll reads events until Stop or until the screen is finalized, at which
// point PollEvent returns nil.
func (s *TermSource) poll() {
	for {
		ev := s.Screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			if s.isStopped() {
				return
			}
		case *tcell.EventResize:
			if s.Logger != nil {
				cols, rows := ev.Size()
				s.Logger.Infof("input", "terminal resized to %dx%d", cols, rows)
			}
			if s.OnResize != nil {
				s.OnResize()
			}
		case *tcell.EventKey:
			s.monitor.Event(s.handle, EvKey, uint16(ev.Key()), 1)
			if isQuitKey(ev) && s.OnQuit != nil {
				s.OnQuit()
			}
		case *tcell.EventMouse:
			x, y := ev.Position()
			s.monitor.Event(s.handle, EvAbs, uint16(x), int32(y))
		}
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

type termDevice struct{}

func (termDevice) Name() string { return "terminal" }
func (termDevice) Open() error  { return nil }
func (termDevice) Close() error { return nil }
