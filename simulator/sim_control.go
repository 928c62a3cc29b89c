package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rook-computer/screensaver/internal/render"
)

// SimSurface draws to the terminal and mirrors every frame into memory so the
// last one can be saved as a PNG.
type SimSurface struct {
	Term   *render.TermSurface
	Mirror *render.MemSurface

	mu     sync.Mutex
	frames int
}

func NewSimSurface(term *render.TermSurface) *SimSurface {
	width, height := term.Size()
	return &SimSurface{Term: term, Mirror: render.NewMemSurface(width, height)}
}

func (s *SimSurface) Size() (int, int) { return s.Term.Size() }

func (s *SimSurface) FillRect(rect render.Rect) error {
	return errors.Join(s.Term.FillRect(rect), s.Mirror.FillRect(rect))
}

func (s *SimSurface) Flush() error {
	err := errors.Join(s.Term.Flush(), s.Mirror.Flush())
	// Only the frame is kept; the call log would grow without bound.
	s.Mirror.Reset()
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return err
}

func (s *SimSurface) Acquire(ctx context.Context) (func(), error) {
	return s.Term.Acquire(ctx)
}

func (s *SimSurface) Close() error {
	return errors.Join(s.Term.Close(), s.Mirror.Close())
}

// Frames is the number of frames shown so far.
func (s *SimSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Snapshot writes the last shown frame to path.
func (s *SimSurface) Snapshot(path string) error {
	if path == "" {
		return nil
	}
	return s.Mirror.WritePNG(path)
}

// redrawWait bounds how long a resize waits for the display.
const redrawWait = 20 * time.Millisecond

// redraw repaints the last frame after a terminal resize. It reports false
// when a session holds the display; that session's next frame repaints it.
func (s *SimSurface) redraw() bool {
	ctx, cancel := context.WithTimeout(context.Background(), redrawWait)
	defer cancel()
	release, err := s.Acquire(ctx)
	if err != nil {
		return false
	}
	defer release()

	frame := s.Mirror.Frame()
	bounds := frame.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; {
			c := frame.RGBAAt(x, y)
			run := x + 1
			for run < bounds.Max.X && frame.RGBAAt(run, y) == c {
				run++
			}
			_ = s.Term.FillRect(render.Rect{X: x, Y: y, Width: run - x, Height: 1, Color: c})
			x = run
		}
	}
	_ = s.Term.Flush()
	return true
}
