// Package system switches the Linux console out of text mode while the
// screensaver owns the framebuffer, so the blinking cursor stays hidden.
package system

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// DefaultPaths prefers the active VT and falls back to tty0.
var DefaultPaths = []string{"/dev/tty", "/dev/tty0"}

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// Console puts the active virtual terminal into graphics mode and back.
type Console struct {
	Paths  []string
	Logger logger

	mu      sync.Mutex
	entered bool
}

func NewConsole(l logger) *Console {
	return &Console{Paths: DefaultPaths, Logger: l}
}

// Enter switches to KD_GRAPHICS and hides the cursor. Failures are logged
// and returned; the caller may carry on with a visible console.
func (c *Console) Enter() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	modeErr := c.each("KD_GRAPHICS", func(p string) error { return setMode(p, kdGraphics) })
	cursorErr := c.each("hide cursor", func(p string) error { return writeVT(p, hideCursor) })
	c.entered = true
	return errors.Join(modeErr, cursorErr)
}

// Restore shows the cursor and returns to KD_TEXT. It is a no-op unless
// Enter was called.
func (c *Console) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.entered {
		return nil
	}
	c.entered = false
	cursorErr := c.each("show cursor", func(p string) error { return writeVT(p, showCursor) })
	modeErr := c.each("KD_TEXT", func(p string) error { return setMode(p, kdText) })
	return errors.Join(cursorErr, modeErr)
}

// each tries op on every path until one succeeds.
func (c *Console) each(what string, op func(path string) error) error {
	var lastErr error
	for _, p := range c.Paths {
		if err := op(p); err != nil {
			lastErr = fmt.Errorf("%s on %s: %w", what, p, err)
			continue
		}
		if c.Logger != nil {
			c.Logger.Infof("tty", "%s on %s", what, p)
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no console paths", what)
	}
	if c.Logger != nil {
		c.Logger.Errorf("tty", "%s failed: %v", what, lastErr)
	}
	return lastErr
}

func writeVT(path, s string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(s)
	return err
}
