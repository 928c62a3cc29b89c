package render

import (
	"context"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/rook-computer/screensaver/internal/render/layout"
	xdraw "golang.org/x/image/draw"
)

// Op is one recorded surface call.
type Op struct {
	Flush bool
	Rect  Rect
}

// MemSurface draws into an in-memory canvas and records every call. It backs
// headless runs and tests.
type MemSurface struct {
	lock *Lock

	mu      sync.Mutex
	canvas  *image.RGBA
	frame   *image.RGBA
	ops     []Op
	flushes int
}

func NewMemSurface(width, height int) *MemSurface {
	return &MemSurface{
		lock:   NewLock(),
		canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *MemSurface) Size() (int, int) {
	bounds := s.canvas.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func (s *MemSurface) FillRect(rect Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Rect: rect})
	dst := layout.Clip(rect.Bounds(), s.canvas.Bounds())
	if dst.Empty() {
		return nil
	}
	xdraw.Draw(s.canvas, dst, &image.Uniform{C: rect.Color}, image.Point{}, xdraw.Src)
	return nil
}

func (s *MemSurface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Flush: true})
	s.flushes++
	xdraw.Copy(s.frame, image.Point{}, s.canvas, s.canvas.Bounds(), xdraw.Src, nil)
	return nil
}

func (s *MemSurface) Acquire(ctx context.Context) (func(), error) {
	return s.lock.Acquire(ctx)
}

func (s *MemSurface) Close() error {
	s.lock.Close()
	return nil
}

// Held reports whether a session currently owns the surface.
func (s *MemSurface) Held() bool { return s.lock.Held() }

// Ops returns a copy of all recorded calls.
func (s *MemSurface) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.ops...)
}

// Fills returns the recorded FillRect calls, in order.
func (s *MemSurface) Fills() []Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Rect
	for _, op := range s.ops {
		if !op.Flush {
			out = append(out, op.Rect)
		}
	}
	return out
}

func (s *MemSurface) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Reset forgets the recorded calls.
func (s *MemSurface) Reset() {
	s.mu.Lock()
	s.ops = nil
	s.flushes = 0
	s.mu.Unlock()
}

// Frame returns a copy of the last flushed frame.
func (s *MemSurface) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.frame.Bounds())
	copy(out.Pix, s.frame.Pix)
	return out
}

// WritePNG saves the last flushed frame.
func (s *MemSurface) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, s.Frame()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
