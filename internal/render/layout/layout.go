package layout

import "image"

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// Clip returns the part of rect inside bounds. The result is empty when they
// do not overlap.
func Clip(rect, bounds image.Rectangle) image.Rectangle {
	return Normalize(rect).Intersect(Normalize(bounds))
}

// Extent returns the smallest rectangle containing all rects.
func Extent(rects []image.Rectangle) image.Rectangle {
	var out image.Rectangle
	for _, rect := range rects {
		out = out.Union(Normalize(rect))
	}
	return out
}

// ScaleRect maps rect from a from-sized space onto a to-sized space, rounding
// outward so adjacent rectangles never leave gaps.
func ScaleRect(rect image.Rectangle, from, to image.Point) image.Rectangle {
	if from.X <= 0 || from.Y <= 0 {
		return image.Rectangle{}
	}
	rect = Normalize(rect)
	return image.Rect(
		floorDiv(rect.Min.X*to.X, from.X),
		floorDiv(rect.Min.Y*to.Y, from.Y),
		ceilDiv(rect.Max.X*to.X, from.X),
		ceilDiv(rect.Max.Y*to.Y, from.Y),
	)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
