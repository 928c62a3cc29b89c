// Package app wires the input monitor, inactivity timer, animation engine,
// display surface and device node together and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rook-computer/screensaver/internal/input"
	"github.com/rook-computer/screensaver/internal/logo"
	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/saver"
	"github.com/rook-computer/screensaver/internal/state"
	"github.com/rook-computer/screensaver/internal/timer"
)

// Node is the registrable device node.
type Node interface {
	Register() error
	Unregister() error
}

type App struct {
	Store    *state.Store
	Surface  render.Surface
	Node     Node
	Sources  []input.Source
	Timeout  time.Duration
	Params   saver.Params
	LogoFile string
	Logger   Logger

	Handles *input.HandleTable
	Monitor *input.Monitor
	Timer   *timer.Timer
	Scene   *logo.Scene

	engine         atomic.Pointer[saver.Engine]
	nodeRegistered bool
	started        []input.Source
	running        bool

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(store *state.Store, surface render.Surface, node Node, sources ...input.Source) *App {
	return &App{
		Store:   store,
		Surface: surface,
		Node:    node,
		Sources: sources,
		Timeout: 15 * time.Second,
		Params: saver.Params{
			TickPeriod:     100 * time.Millisecond,
			Speed:          10,
			FootprintWidth: 220,
			AcquireTimeout: time.Second,
		},
		Logger: NoopLogger{},
		exitCh: make(chan error, 1),
	}
}

// Exit requests the app to stop running.
// Any component can call this to terminate the process via the generic codepath.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Engine returns the animation engine once Start has created it.
func (app *App) Engine() *saver.Engine { return app.engine.Load() }

// Start brings everything up. Any failure undoes the steps already taken and
// is returned; the app is then stopped.
func (app *App) Start(ctx context.Context) error {
	if app.running {
		return saver.ErrAlreadyStarted
	}
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	app.exitOnce.Store(false)

	if err := app.start(ctx); err != nil {
		app.Logger.Errorf("app", "startup failed: %v", err)
		if stopErr := app.shutdown(); stopErr != nil {
			app.Logger.Errorf("app", "rollback: %v", stopErr)
		}
		return err
	}
	app.running = true
	app.Logger.Infof("app", "screensaver armed, timeout %v", app.Timeout)
	return nil
}

func (app *App) start(ctx context.Context) error {
	if app.Node != nil {
		if err := app.Node.Register(); err != nil {
			return fmt.Errorf("register device node: %w", err)
		}
		app.nodeRegistered = true
	}

	// The timer exists before any device so early events can arm it; the
	// engine it triggers is attached further down.
	app.Timer = timer.New(app.expire)
	app.Handles = input.NewHandleTable()
	app.Monitor = input.NewMonitor(app.Handles, app.Timer, app.Store, app.Timeout)
	app.Monitor.Logger = app.Logger
	for _, src := range app.Sources {
		if err := src.Start(ctx, app.Monitor); err != nil {
			return fmt.Errorf("start input %s: %w", src.Name(), err)
		}
		app.started = append(app.started, src)
	}

	cfg, err := logo.Load(app.LogoFile)
	if err != nil {
		return fmt.Errorf("load logo: %w", err)
	}
	width, height := app.Surface.Size()
	scene, err := logo.NewScene(cfg, width, height)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	app.Scene = scene
	app.Logger.Infof("app", "logo extent %v on %dx%d surface", scene.Extent(), width, height)

	if err := app.clear(ctx); err != nil {
		return fmt.Errorf("initial clear: %w", err)
	}

	engine := saver.New(app.Surface, scene, app.Store, app.Params)
	engine.Logger = app.Logger
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	app.engine.Store(engine)
	app.Timer.Arm(app.Timeout)
	return nil
}

// clear paints the idle background once.
func (app *App) clear(ctx context.Context) error {
	acquireCtx := ctx
	if app.Params.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, app.Params.AcquireTimeout)
		defer cancel()
	}
	release, err := app.Surface.Acquire(acquireCtx)
	if err != nil {
		return err
	}
	defer release()
	if err := app.Surface.FillRect(app.Scene.IdleBackground); err != nil {
		return err
	}
	return app.Surface.Flush()
}

// expire runs when the inactivity timer fires.
func (app *App) expire() {
	app.Store.MarkIdle()
	if e := app.engine.Load(); e != nil {
		e.Trigger()
	}
}

// Run starts the app and blocks until ctx is done or Exit is called, then
// shuts down.
func (app *App) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}
	var err error
	select {
	case <-ctx.Done():
	case err = <-app.exitCh:
	}
	if stopErr := app.Stop(); stopErr != nil {
		app.Logger.Errorf("app", "shutdown: %v", stopErr)
		if err == nil {
			err = stopErr
		}
	}
	return err
}

// Stop tears everything down: inputs first so nothing re-arms the timer,
// then the timer, then the engine (waiting for a running session), then the
// surface and the device node.
func (app *App) Stop() error {
	if !app.running {
		return nil
	}
	app.running = false
	return app.shutdown()
}

func (app *App) shutdown() error {
	var errs []error
	for i := len(app.started) - 1; i >= 0; i-- {
		if err := app.started[i].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop input %s: %w", app.started[i].Name(), err))
		}
	}
	app.started = nil

	if app.Timer != nil {
		app.Timer.Cancel()
	}
	if e := app.engine.Swap(nil); e != nil {
		e.Stop()
	}
	if app.Surface != nil {
		if err := app.Surface.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close surface: %w", err))
		}
	}
	if app.nodeRegistered {
		if err := app.Node.Unregister(); err != nil {
			errs = append(errs, fmt.Errorf("unregister device node: %w", err))
		}
		app.nodeRegistered = false
	}
	app.Logger.Infof("app", "stopped")
	return errors.Join(errs...)
}
