package render

import "image/color"

// Palette used by the screensaver, taken from the 16-colour console palette.
var (
	Idle       = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF} // black
	Active     = color.RGBA{R: 0xAA, G: 0x00, B: 0x00, A: 0xFF} // red
	Foreground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF} // white
)

// PaletteColor resolves a palette entry by name.
func PaletteColor(name string) (color.RGBA, bool) {
	switch name {
	case "idle", "black":
		return Idle, true
	case "active", "red":
		return Active, true
	case "foreground", "white", "":
		return Foreground, true
	}
	return color.RGBA{}, false
}
