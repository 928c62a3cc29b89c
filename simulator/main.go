package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rook-computer/screensaver/internal/app"
	"github.com/rook-computer/screensaver/internal/config"
	"github.com/rook-computer/screensaver/internal/devnode"
	"github.com/rook-computer/screensaver/internal/input"
	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/saver"
	"github.com/rook-computer/screensaver/internal/state"
)

func main() {
	os.Exit(run())
}

func run() int {
	snapshot := flag.String("snapshot", "", "write the last frame shown to this PNG file on exit")
	cfg, err := config.FromArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Println("config error:", err)
		return 2
	}

	// The terminal belongs to the display, so logs only go to the debug file.
	var out io.Writer = io.Discard
	if cfg.Debug {
		f, err := os.OpenFile("./screensaver-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println("debug log open error:", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	logger := app.NewLogrusLogger(app.NewStandardLogger(out, cfg.Debug))

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Println("terminal error:", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Println("terminal init error:", err)
		return 1
	}
	screen.EnableMouse()
	screen.HideCursor()
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	surface := NewSimSurface(render.NewTermSurface(screen, cfg.Width, cfg.Height))
	keys := input.NewTermSource(screen)
	keys.Logger = logger
	keys.OnResize = func() { surface.redraw() }

	a := app.New(state.NewStore(), surface, devnode.New(cfg.LockPath), keys)
	a.Timeout = cfg.Timeout
	a.Params = saver.Params{
		TickPeriod:     cfg.TickPeriod,
		Speed:          cfg.Speed,
		FootprintWidth: cfg.FootprintWidth,
		AcquireTimeout: cfg.AcquireTimeout,
	}
	a.LogoFile = cfg.LogoFile
	a.Logger = logger
	keys.OnQuit = func() { a.Exit(nil) }

	runErr := a.Run(ctx)
	screen.Fini()
	if err := surface.Snapshot(*snapshot); err != nil {
		fmt.Println("snapshot error:", err)
	}
	if runErr != nil {
		fmt.Println("simulator error:", runErr)
		return 1
	}
	fmt.Printf("simulator stopped after %d frames\n", surface.Frames())
	return 0
}
