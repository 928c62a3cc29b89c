package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	fb "github.com/gonutz/framebuffer"
	"github.com/rook-computer/screensaver/internal/render/layout"
	xdraw "golang.org/x/image/draw"
)

// pixelSink is the part of the framebuffer device the blit needs.
type pixelSink interface {
	Bounds() image.Rectangle
	Set(x, y int, c color.Color)
}

// FBSurface renders to a Linux framebuffer. Rectangles are given in the
// logical canvas space and scaled to the device resolution.
type FBSurface struct {
	Index  int
	Width  int
	Height int
	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	fbDev *fb.Device
	sink  pixelSink
	lock  *Lock

	mu     sync.Mutex
	canvas *image.RGBA
	dirty  image.Rectangle
}

// NewFBSurface returns a surface for /dev/fb<index> with a width×height logical canvas.
func NewFBSurface(index, width, height int) *FBSurface {
	return &FBSurface{Index: index, Width: width, Height: height, lock: NewLock()}
}

func (s *FBSurface) Path() string { return fmt.Sprintf("/dev/fb%d", s.Index) }

// Open maps the framebuffer device.
func (s *FBSurface) Open() error {
	dev, err := fb.Open(s.Path())
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Path(), err)
	}
	s.fbDev = dev
	s.attach(dev)
	if s.Logger != nil {
		bounds := dev.Bounds()
		s.Logger.Infof("fb", "framebuffer open, bounds=%dx%d canvas=%dx%d", bounds.Dx(), bounds.Dy(), s.Width, s.Height)
	}
	return nil
}

func (s *FBSurface) attach(sink pixelSink) {
	s.sink = sink
	s.canvas = image.NewRGBA(sink.Bounds())
	if s.lock == nil {
		s.lock = NewLock()
	}
}

func (s *FBSurface) Size() (int, int) { return s.Width, s.Height }

func (s *FBSurface) FillRect(rect Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return ErrSurfaceClosed
	}
	bounds := s.canvas.Bounds()
	dst := layout.ScaleRect(rect.Bounds(), image.Pt(s.Width, s.Height), bounds.Size()).Add(bounds.Min)
	dst = layout.Clip(dst, bounds)
	if dst.Empty() {
		return nil
	}
	xdraw.Draw(s.canvas, dst, &image.Uniform{C: rect.Color}, image.Point{}, xdraw.Src)
	s.dirty = s.dirty.Union(dst)
	return nil
}

// Flush copies the region touched since the last flush to the device.
func (s *FBSurface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		return ErrSurfaceClosed
	}
	dirty := s.dirty
	s.dirty = image.Rectangle{}
	for y := dirty.Min.Y; y < dirty.Max.Y; y++ {
		for x := dirty.Min.X; x < dirty.Max.X; x++ {
			pixel := s.canvas.RGBAAt(x, y)
			s.sink.Set(x, y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
	return nil
}

func (s *FBSurface) Acquire(ctx context.Context) (func(), error) {
	return s.lock.Acquire(ctx)
}

func (s *FBSurface) Close() error {
	s.lock.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fbDev != nil {
		s.fbDev.Close()
		s.fbDev = nil
	}
	s.sink = nil
	s.canvas = nil
	return nil
}
