package saver

// Animation is the per-session horizontal bounce state of the logo.
type Animation struct {
	Position       int
	Direction      int // +1 or -1
	Speed          int // pixels per tick
	FootprintWidth int
	ScreenWidth    int
}

func NewAnimation(speed, footprintWidth, screenWidth int) *Animation {
	return &Animation{
		Position:       0,
		Direction:      1,
		Speed:          speed,
		FootprintWidth: footprintWidth,
		ScreenWidth:    screenWidth,
	}
}

// Step advances one tick and returns the position the frame is drawn at.
// When that position touches either edge the direction flips and one
// corrective step is applied before the next tick.
func (a *Animation) Step() int {
	a.Position += a.Speed * a.Direction
	drawn := a.Position
	if a.Position <= 0 || a.Position+a.FootprintWidth >= a.ScreenWidth {
		a.Direction = -a.Direction
		a.Position += a.Speed * a.Direction
	}
	return drawn
}
