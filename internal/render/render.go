package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
)

var ErrSurfaceClosed = errors.New("surface closed")

// Surface is the display the screensaver draws on. Drawing calls are only
// valid between Acquire and the release func it returns.
type Surface interface {
	// Size returns the logical size (in pixels) that rectangles are expressed in.
	Size() (width int, height int)

	FillRect(rect Rect) error

	// Flush makes everything filled since the last Flush visible.
	Flush() error

	// Acquire blocks until the caller holds exclusive access or ctx is done.
	// The returned release func is safe to call more than once.
	Acquire(ctx context.Context) (release func(), err error)

	Close() error
}

// Rect is a filled rectangle in surface coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
	Color         color.RGBA
}

func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d) #%02x%02x%02x", r.Width, r.Height, r.X, r.Y, r.Color.R, r.Color.G, r.Color.B)
}

// Lock is the exclusive-acquisition primitive shared by the surfaces.
type Lock struct {
	sem       chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

func NewLock() *Lock {
	return &Lock{sem: make(chan struct{}, 1), closed: make(chan struct{})}
}

func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	select {
	case <-l.closed:
		return nil, ErrSurfaceClosed
	default:
	}
	select {
	case l.sem <- struct{}{}:
	case <-l.closed:
		return nil, ErrSurfaceClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire surface: %w", ctx.Err())
	}
	var once sync.Once
	return func() { once.Do(func() { <-l.sem }) }, nil
}

// Held reports whether someone currently holds the lock.
func (l *Lock) Held() bool {
	return len(l.sem) == 1
}

// Close makes every later Acquire fail. Holders keep their access until they release.
func (l *Lock) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}
