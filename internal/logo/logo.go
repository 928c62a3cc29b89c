// Package logo holds the static geometry of the idle logo and the scene
// built from it at startup. Nothing here is mutated after construction.
package logo

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/rook-computer/screensaver/internal/render"
	"github.com/rook-computer/screensaver/internal/render/layout"
	"gopkg.in/yaml.v3"
)

//go:embed logo.yaml
var DefaultFile []byte

type Config struct {
	OriginX int    `yaml:"origin_x"`
	Rects   []Rect `yaml:"rects"`
}

type Rect struct {
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
	Color string `yaml:"color,omitempty"`
}

// Load reads the logo table from path, or the embedded default when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(DefaultFile)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logo file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse logo: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Rects) == 0 {
		return errors.New("logo has no rectangles")
	}
	for i, r := range c.Rects {
		if r.W <= 0 || r.H <= 0 {
			return fmt.Errorf("logo rect %d: non-positive size %dx%d", i, r.W, r.H)
		}
		if _, ok := render.PaletteColor(r.Color); !ok {
			return fmt.Errorf("logo rect %d: unknown colour %q", i, r.Color)
		}
	}
	return nil
}

// Scene is the immutable set of rectangles one animation frame is built from.
type Scene struct {
	Logo             []render.Rect
	ActiveBackground render.Rect
	IdleBackground   render.Rect
}

// NewScene lays the logo out relative to its origin and builds the two
// full-surface backgrounds for a width×height surface.
func NewScene(cfg *Config, width, height int) (*Scene, error) {
	if cfg == nil {
		return nil, errors.New("nil logo config")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scene := &Scene{
		Logo:             make([]render.Rect, 0, len(cfg.Rects)),
		ActiveBackground: render.Rect{Width: width, Height: height, Color: render.Active},
		IdleBackground:   render.Rect{Width: width, Height: height, Color: render.Idle},
	}
	for _, r := range cfg.Rects {
		c, _ := render.PaletteColor(r.Color)
		scene.Logo = append(scene.Logo, render.Rect{X: r.X - cfg.OriginX, Y: r.Y, Width: r.W, Height: r.H, Color: c})
	}
	return scene, nil
}

// LogoAt returns the logo rectangles with the base layout placed at x.
func (s *Scene) LogoAt(x int) []render.Rect {
	out := make([]render.Rect, len(s.Logo))
	for i, r := range s.Logo {
		out[i] = r.Translate(x, 0)
	}
	return out
}

// Extent is the bounding box of the logo at position 0.
func (s *Scene) Extent() image.Rectangle {
	rects := make([]image.Rectangle, len(s.Logo))
	for i, r := range s.Logo {
		rects[i] = r.Bounds()
	}
	return layout.Extent(rects)
}
