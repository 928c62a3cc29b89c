package layout

import (
	"image"
	"testing"
)

func TestClip(t *testing.T) {
	bounds := image.Rect(0, 0, 480, 272)
	tests := []struct {
		name string
		in   image.Rectangle
		want image.Rectangle
	}{
		{"inside", image.Rect(10, 10, 20, 20), image.Rect(10, 10, 20, 20)},
		{"overlaps right edge", image.Rect(470, 0, 500, 10), image.Rect(470, 0, 480, 10)},
		{"negative origin", image.Rect(-10, 31, 10, 241), image.Rect(0, 31, 10, 241)},
		{"inverted", image.Rect(20, 20, 10, 10), image.Rect(10, 10, 20, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clip(tt.in, bounds); got != tt.want {
				t.Errorf("Clip(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := Clip(image.Rect(500, 0, 520, 10), bounds); !got.Empty() {
		t.Errorf("expected empty clip for rect outside bounds, got %v", got)
	}
}

func TestExtent(t *testing.T) {
	got := Extent([]image.Rectangle{
		image.Rect(120, 31, 140, 241),
		image.Rect(340, 31, 360, 221),
	})
	if want := image.Rect(120, 31, 360, 241); got != want {
		t.Errorf("Extent = %v, want %v", got, want)
	}
}

func TestScaleRect(t *testing.T) {
	from := image.Pt(480, 272)

	if got := ScaleRect(image.Rect(0, 0, 480, 272), from, image.Pt(960, 544)); got != image.Rect(0, 0, 960, 544) {
		t.Errorf("full-surface scale = %v", got)
	}
	// 10px at 480 -> 800 is 16.67px; rounding outward keeps coverage.
	if got := ScaleRect(image.Rect(10, 0, 20, 1), from, image.Pt(800, 480)); got != image.Rect(16, 0, 34, 2) {
		t.Errorf("outward rounding = %v", got)
	}
	if got := ScaleRect(image.Rect(0, 0, 1, 1), image.Point{}, image.Pt(10, 10)); !got.Empty() {
		t.Errorf("zero source size should produce empty rect, got %v", got)
	}
}
