package render

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestLockIsExclusive(t *testing.T) {
	l := NewLock()
	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !l.Held() {
		t.Fatal("expected lock held")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Acquire = %v, want deadline exceeded", err)
	}

	release()
	release()
	if l.Held() {
		t.Fatal("expected lock free after release")
	}
	release2, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	release2()
}

func TestLockCloseUnblocksWaiters(t *testing.T) {
	l := NewLock()
	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(context.Background())
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	l.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSurfaceClosed) {
			t.Errorf("waiter got %v, want ErrSurfaceClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released by Close")
	}
}

func TestPaletteColor(t *testing.T) {
	for name, want := range map[string]color.RGBA{"idle": Idle, "active": Active, "foreground": Foreground, "": Foreground} {
		got, ok := PaletteColor(name)
		if !ok || got != want {
			t.Errorf("PaletteColor(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := PaletteColor("magenta"); ok {
		t.Error("unknown palette name should not resolve")
	}
}

func TestMemSurfaceRecordsAndDraws(t *testing.T) {
	s := NewMemSurface(480, 272)
	if w, h := s.Size(); w != 480 || h != 272 {
		t.Fatalf("Size = %dx%d", w, h)
	}

	_ = s.FillRect(Rect{Width: 480, Height: 272, Color: Active})
	_ = s.FillRect(Rect{X: -5, Y: 31, Width: 20, Height: 210, Color: Foreground})
	if got := s.Frame().RGBAAt(200, 5); got == Active {
		t.Error("frame changed before Flush")
	}
	_ = s.Flush()

	frame := s.Frame()
	if got := frame.RGBAAt(10, 100); got != Foreground {
		t.Errorf("clipped logo pixel = %v", got)
	}
	if got := frame.RGBAAt(200, 5); got != Active {
		t.Errorf("background pixel = %v", got)
	}
	if len(s.Fills()) != 2 || s.Flushes() != 1 {
		t.Errorf("recorded %d fills and %d flushes", len(s.Fills()), s.Flushes())
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := s.WritePNG(path); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	s.Reset()
	if len(s.Ops()) != 0 {
		t.Error("Reset should clear recorded ops")
	}
}

func TestTermSurfaceHalfBlocks(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(48, 14)

	s := NewTermSurface(screen, 480, 272)
	_ = s.FillRect(Rect{Width: 480, Height: 272, Color: Active})
	_ = s.FillRect(Rect{X: 0, Y: 0, Width: 240, Height: 272, Color: Foreground})
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	mainc, _, style, _ := screen.GetContent(2, 3)
	if mainc != upperHalf {
		t.Fatalf("cell rune = %q, want half block", mainc)
	}
	fg, bg, _ := style.Decompose()
	if fg != tcell.NewRGBColor(0xFF, 0xFF, 0xFF) || bg != tcell.NewRGBColor(0xFF, 0xFF, 0xFF) {
		t.Errorf("left cell colours = %v/%v, want white", fg, bg)
	}

	_, _, style, _ = screen.GetContent(40, 3)
	fg, _, _ = style.Decompose()
	if fg != tcell.NewRGBColor(0xAA, 0x00, 0x00) {
		t.Errorf("right cell colour = %v, want red", fg)
	}
}
