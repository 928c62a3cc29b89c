// Package saver runs the animated screensaver sessions.
package saver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rook-computer/screensaver/internal/logo"
	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/state"
)

var (
	ErrSessionRunning = errors.New("animation session already running")
	ErrAlreadyStarted = errors.New("engine already started")
	ErrAcquire        = errors.New("display surface unavailable")
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type Params struct {
	TickPeriod     time.Duration
	Speed          int
	FootprintWidth int
	// AcquireTimeout bounds how long a session waits for the surface.
	AcquireTimeout time.Duration
}

// Engine draws the bouncing logo while the user is idle. Sessions run on the
// engine's own goroutine; Trigger only signals it.
type Engine struct {
	Surface render.Surface
	Scene   *logo.Scene
	Store   *state.Store
	Params  Params
	Logger  Logger

	trigger chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

func New(surface render.Surface, scene *logo.Scene, store *state.Store, params Params) *Engine {
	return &Engine{
		Surface: surface,
		Scene:   scene,
		Store:   store,
		Params:  params,
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the session worker. It returns immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return ErrAlreadyStarted
	}
	workerCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.worker(workerCtx)
	}()
	return nil
}

// Trigger asks the worker to start a session. It never blocks; triggers that
// arrive while one is already queued are coalesced.
func (e *Engine) Trigger() bool {
	select {
	case e.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop cancels the worker and waits for it, including any running session,
// to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()
}

// LastError returns the error of the most recent failed session.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.trigger:
			err := e.RunSession(ctx)
			e.mu.Lock()
			e.lastErr = err
			e.mu.Unlock()
			if err != nil && e.Logger != nil {
				e.Logger.Errorf("saver", "session failed: %v", err)
			}
		}
	}
}

// RunSession runs one animation session on the calling goroutine until the
// user becomes active or ctx is done, then restores the idle image.
func (e *Engine) RunSession(ctx context.Context) error {
	if !e.Store.TryBeginSession() {
		return ErrSessionRunning
	}
	defer e.Store.EndSession()

	// Input that arrived after the expiry that scheduled us cancels the session outright.
	if e.Store.UserActive() {
		if e.Logger != nil {
			e.Logger.Infof("saver", "activity before session start, skipping")
		}
		return nil
	}

	acquireCtx := ctx
	if e.Params.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.Params.AcquireTimeout)
		defer cancel()
	}
	release, err := e.Surface.Acquire(acquireCtx)
	if err != nil {
		return fmt.Errorf("session: %w: %w", ErrAcquire, err)
	}
	defer release()

	width, _ := e.Surface.Size()
	anim := NewAnimation(e.Params.Speed, e.Params.FootprintWidth, width)
	if e.Logger != nil {
		e.Logger.Infof("saver", "session started, screen width=%d", width)
	}

	ticks, loopErr := e.loop(ctx, anim)

	// Restore the idle image exactly once, whatever ended the loop.
	err = e.Surface.FillRect(e.Scene.IdleBackground)
	if err == nil {
		err = e.Surface.Flush()
	}
	if e.Logger != nil {
		e.Logger.Infof("saver", "session ended after %d ticks", ticks)
	}
	if loopErr != nil {
		return fmt.Errorf("session: %w", loopErr)
	}
	if err != nil {
		return fmt.Errorf("session: restore idle image: %w", err)
	}
	return nil
}

func (e *Engine) loop(ctx context.Context, anim *Animation) (int, error) {
	for ticks := 1; ; ticks++ {
		tickStart := time.Now()
		if err := e.drawFrame(anim.Step()); err != nil {
			return ticks, err
		}
		if e.Store.UserActive() {
			return ticks, nil
		}
		if !sleepUntil(ctx, tickStart.Add(e.Params.TickPeriod)) {
			return ticks, nil
		}
	}
}

// sleepUntil reports false when ctx ended before the deadline.
func sleepUntil(ctx context.Context, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Engine) drawFrame(x int) error {
	if err := e.Surface.FillRect(e.Scene.ActiveBackground); err != nil {
		return err
	}
	for _, rect := range e.Scene.LogoAt(x) {
		if err := e.Surface.FillRect(rect); err != nil {
			return err
		}
	}
	return e.Surface.Flush()
}
