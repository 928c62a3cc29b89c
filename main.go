package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/screensaver/internal/app"
	"github.com/rook-computer/screensaver/internal/config"
	"github.com/rook-computer/screensaver/internal/devnode"
	"github.com/rook-computer/screensaver/internal/input"
	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/saver"
	"github.com/rook-computer/screensaver/internal/state"
	"github.com/rook-computer/screensaver/internal/system"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Println("config error:", err)
		return 2
	}

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	if cfg.StdioLog != "" {
		if err := redirectStdIO(cfg.StdioLog); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	var out io.Writer = os.Stderr
	if cfg.Debug {
		f, err := os.OpenFile("./screensaver-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			out = f
		} else {
			fmt.Println("debug log open error:", err)
		}
	}
	logger := app.NewLogrusLogger(app.NewStandardLogger(out, cfg.Debug))
	logger.Infof("main", "screensaver starting, timeout %v", cfg.Timeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	surface := render.NewFBSurface(cfg.Framebuffer, cfg.Width, cfg.Height)
	surface.Logger = logger
	if err := surface.Open(); err != nil {
		logger.Errorf("main", "%v", err)
		return 1
	}

	// Switch console to KD_GRAPHICS to suppress hardware cursor
	console := system.NewConsole(logger)
	_ = console.Enter()
	defer console.Restore()

	evdev := input.NewEvdevSource(cfg.InputDir)
	evdev.Logger = logger
	buttons := input.NewGPIOSource(cfg.GPIOChip, cfg.GPIOLines)
	buttons.Logger = logger

	a := app.New(state.NewStore(), surface, devnode.New(cfg.LockPath), evdev, buttons)
	a.Timeout = cfg.Timeout
	a.Params = saver.Params{
		TickPeriod:     cfg.TickPeriod,
		Speed:          cfg.Speed,
		FootprintWidth: cfg.FootprintWidth,
		AcquireTimeout: cfg.AcquireTimeout,
	}
	a.LogoFile = cfg.LogoFile
	a.Logger = logger
	if cfg.ExitOnF4 {
		evdev.QuitKey = input.KeyF4
		evdev.OnQuit = func() { a.Exit(nil) }
	}

	if err := a.Run(ctx); err != nil {
		logger.Errorf("main", "%v", err)
		return 1
	}
	logger.Infof("main", "screensaver stopped")
	return 0
}
