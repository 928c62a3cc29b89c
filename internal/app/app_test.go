package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rook-computer/screensaver/internal/devnode"
	"github.com/rook-computer/screensaver/internal/input"
	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/saver"
	"github.com/rook-computer/screensaver/internal/state"
)

type orderLog struct {
	mu    sync.Mutex
	steps []string
}

func (o *orderLog) add(step string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

func (o *orderLog) get() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.steps...)
}

type fakeDevice struct{ name string }

func (d fakeDevice) Name() string { return d.name }
func (d fakeDevice) Open() error  { return nil }
func (d fakeDevice) Close() error { return nil }

type fakeSource struct {
	name     string
	startErr error
	log      *orderLog

	m *input.Monitor
	h *input.Handle
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Start(ctx context.Context, m *input.Monitor) error {
	s.log.add("start " + s.name)
	if s.startErr != nil {
		return s.startErr
	}
	h, err := m.Connect(fakeDevice{name: s.name})
	if err != nil {
		return err
	}
	s.m, s.h = m, h
	return nil
}

func (s *fakeSource) Stop() error {
	s.log.add("stop " + s.name)
	s.m.Disconnect(s.h)
	return nil
}

func (s *fakeSource) press() { s.m.Event(s.h, input.EvKey, 30, 1) }

type fakeNode struct {
	log *orderLog
	err error
}

func (n *fakeNode) Register() error {
	n.log.add("register")
	return n.err
}

func (n *fakeNode) Unregister() error {
	n.log.add("unregister")
	return nil
}

type recordingSurface struct {
	*render.MemSurface
	log *orderLog
}

func (s *recordingSurface) Close() error {
	s.log.add("close surface")
	return s.MemSurface.Close()
}

type fixture struct {
	log     *orderLog
	store   *state.Store
	surface *recordingSurface
	node    *fakeNode
	sources []*fakeSource
	app     *App
}

func newFixture(t *testing.T, timeout time.Duration, names ...string) *fixture {
	t.Helper()
	f := &fixture{log: &orderLog{}, store: state.NewStore()}
	f.surface = &recordingSurface{MemSurface: render.NewMemSurface(480, 272), log: f.log}
	f.node = &fakeNode{log: f.log}
	var sources []input.Source
	for _, name := range names {
		src := &fakeSource{name: name, log: f.log}
		f.sources = append(f.sources, src)
		sources = append(sources, src)
	}
	f.app = New(f.store, f.surface, f.node, sources...)
	f.app.Timeout = timeout
	f.app.Params = saver.Params{TickPeriod: 2 * time.Millisecond, Speed: 10, FootprintWidth: 220, AcquireTimeout: 50 * time.Millisecond}
	return f
}

func equalSteps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartupAndShutdownOrder(t *testing.T) {
	f := newFixture(t, time.Hour, "kbd", "mouse")
	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if f.app.Handles.Len() != 2 {
		t.Errorf("handles = %d, want 2", f.app.Handles.Len())
	}
	if !f.app.Timer.Pending() {
		t.Error("timer not armed after Start")
	}
	fills := f.surface.Fills()
	if len(fills) != 1 || fills[0] != f.app.Scene.IdleBackground || f.surface.Flushes() != 1 {
		t.Errorf("startup drew %v with %d flushes, want one idle fill", fills, f.surface.Flushes())
	}
	if f.surface.Held() {
		t.Error("surface held after startup")
	}

	if err := f.app.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := []string{"register", "start kbd", "start mouse", "stop mouse", "stop kbd", "close surface", "unregister"}
	if got := f.log.get(); !equalSteps(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
	if f.app.Timer.Pending() {
		t.Error("timer still pending after Stop")
	}
	if f.app.Handles.Len() != 0 {
		t.Errorf("handles after Stop = %d", f.app.Handles.Len())
	}
	if err := f.app.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestStartRollsBackOnSourceFailure(t *testing.T) {
	f := newFixture(t, time.Hour, "kbd", "gpio")
	boom := errors.New("no such chip")
	f.sources[1].startErr = boom

	err := f.app.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Start = %v, want %v", err, boom)
	}
	want := []string{"register", "start kbd", "start gpio", "stop kbd", "close surface", "unregister"}
	if got := f.log.get(); !equalSteps(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
	if len(f.surface.Ops()) != 0 {
		t.Error("surface drawn although startup failed")
	}
}

func TestStartFailsWhenNodeBusy(t *testing.T) {
	lock := filepath.Join(t.TempDir(), "saver.lock")
	owner := devnode.New(lock)
	if err := owner.Register(); err != nil {
		t.Fatal(err)
	}
	defer owner.Unregister()

	f := newFixture(t, time.Hour, "kbd")
	f.app.Node = devnode.New(lock)
	err := f.app.Start(context.Background())
	if !errors.Is(err, devnode.ErrNodeBusy) {
		t.Fatalf("Start = %v, want ErrNodeBusy", err)
	}
	if got := f.log.get(); !equalSteps(got, []string{"close surface"}) {
		t.Errorf("steps = %v, want only the surface close", got)
	}
}

func TestStartRollsBackOnLogoFailure(t *testing.T) {
	f := newFixture(t, time.Hour, "kbd")
	f.app.LogoFile = filepath.Join(t.TempDir(), "missing.yaml")

	if err := f.app.Start(context.Background()); err == nil {
		t.Fatal("expected logo load error")
	}
	want := []string{"register", "start kbd", "stop kbd", "close surface", "unregister"}
	if got := f.log.get(); !equalSteps(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
}

func TestSessionStartsAfterInactivityAndStopsOnInput(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond, "kbd")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := f.app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer f.app.Stop()

	waitFor(t, "session start", f.store.SessionRunning)

	f.sources[0].press()
	waitFor(t, "session end", func() bool { return !f.store.SessionRunning() })

	fills := f.surface.Fills()
	if fills[len(fills)-1] != f.app.Scene.IdleBackground {
		t.Errorf("last fill = %v, want idle background", fills[len(fills)-1])
	}
	if !f.store.UserActive() {
		t.Error("input did not mark the user active")
	}
	if !f.app.Timer.Pending() {
		t.Error("input did not re-arm the timer")
	}

	// Idle again: another session follows.
	waitFor(t, "second session", func() bool { return f.store.Snapshot().Sessions >= 2 })
}

func TestSteadyInputPreventsSessions(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond, "kbd")
	if err := f.app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer f.app.Stop()

	end := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(end) {
		f.sources[0].press()
		time.Sleep(5 * time.Millisecond)
	}
	if n := f.store.Snapshot().Sessions; n != 0 {
		t.Fatalf("%d sessions ran during steady input", n)
	}
	if f.store.SessionRunning() {
		t.Fatal("session running during steady input")
	}
}

func TestRunShutsDownRunningSession(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond, "kbd")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.app.Run(ctx) }()

	waitFor(t, "session start", f.store.SessionRunning)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if f.store.SessionRunning() {
		t.Error("session still running after Run returned")
	}
	fills := f.surface.Fills()
	if fills[len(fills)-1] != f.app.Scene.IdleBackground {
		t.Errorf("last fill = %v, want idle background", fills[len(fills)-1])
	}
	if f.surface.Held() {
		t.Error("surface held after shutdown")
	}
}

func TestExitStopsRun(t *testing.T) {
	f := newFixture(t, time.Hour, "kbd")
	want := errors.New("quit requested")
	done := make(chan error, 1)
	go func() { done <- f.app.Run(context.Background()) }()

	waitFor(t, "startup", func() bool { return f.app.Engine() != nil })
	f.app.Exit(want)
	f.app.Exit(errors.New("ignored"))

	select {
	case err := <-done:
		if !errors.Is(err, want) {
			t.Fatalf("Run = %v, want %v", err, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Exit")
	}
	if steps := f.log.get(); steps[len(steps)-1] != "unregister" {
		t.Errorf("shutdown did not finish: %v", steps)
	}
}

// A zero acquire timeout means no bound, as in the engine.
func TestStartWithUnboundedAcquire(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t, time.Hour, "kbd")
		f.app.Params.AcquireTimeout = 0
		if err := f.app.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if got := f.surface.Flushes(); got != 1 {
			t.Fatalf("start %d: %d flushes, want the idle fill", i, got)
		}
		if err := f.app.Stop(); err != nil {
			t.Fatal(err)
		}
	}
}
