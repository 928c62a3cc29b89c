package render

import (
	"context"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rook-computer/screensaver/internal/render/layout"
	xdraw "golang.org/x/image/draw"
)

// upperHalf draws the top half of a cell in the foreground colour, so each
// terminal cell shows two vertically stacked pixels.
const upperHalf = '▀'

// TermSurface renders the logical canvas into a terminal using half-block cells.
type TermSurface struct {
	screen tcell.Screen
	lock   *Lock

	mu     sync.Mutex
	canvas *image.RGBA
	cells  *image.RGBA
}

func NewTermSurface(screen tcell.Screen, width, height int) *TermSurface {
	return &TermSurface{
		screen: screen,
		lock:   NewLock(),
		canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *TermSurface) Size() (int, int) {
	bounds := s.canvas.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func (s *TermSurface) FillRect(rect Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst := layout.Clip(rect.Bounds(), s.canvas.Bounds())
	if dst.Empty() {
		return nil
	}
	xdraw.Draw(s.canvas, dst, &image.Uniform{C: rect.Color}, image.Point{}, xdraw.Src)
	return nil
}

// Flush downsamples the canvas to the current terminal size and shows it.
func (s *TermSurface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, rows := s.screen.Size()
	if cols <= 0 || rows <= 0 {
		return nil
	}
	bounds := image.Rect(0, 0, cols, rows*2)
	if s.cells == nil || s.cells.Bounds() != bounds {
		s.cells = image.NewRGBA(bounds)
	}
	xdraw.NearestNeighbor.Scale(s.cells, bounds, s.canvas, s.canvas.Bounds(), xdraw.Src, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := s.cells.RGBAAt(x, 2*y)
			bottom := s.cells.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.screen.SetContent(x, y, upperHalf, nil, style)
		}
	}
	s.screen.Show()
	return nil
}

func (s *TermSurface) Acquire(ctx context.Context) (func(), error) {
	return s.lock.Acquire(ctx)
}

// Close stops further acquisitions. The tcell screen is owned by the caller.
func (s *TermSurface) Close() error {
	s.lock.Close()
	return nil
}
