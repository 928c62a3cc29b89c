//go:build !linux

package input

import (
	"context"
	"errors"
)

// EvdevSource needs Linux evdev; elsewhere Start always fails.
type EvdevSource struct {
	Dir    string
	Logger Logger

	QuitKey uint16
	OnQuit  func()
}

func NewEvdevSource(dir string) *EvdevSource { return &EvdevSource{Dir: dir} }

func (s *EvdevSource) Name() string { return "evdev:" + s.Dir }

func (s *EvdevSource) Start(ctx context.Context, m *Monitor) error {
	return errors.New("evdev input is only supported on linux")
}

func (s *EvdevSource) Stop() error { return nil }
