//go:build !linux

package input

import (
	"context"
	"errors"
)

// GPIOSource needs the Linux GPIO character device; elsewhere Start fails
// when lines are configured.
type GPIOSource struct {
	Chip   string
	Lines  []int
	Logger Logger
}

func NewGPIOSource(chip string, lines []int) *GPIOSource {
	return &GPIOSource{Chip: chip, Lines: lines}
}

func (s *GPIOSource) Name() string { return "gpio:" + s.Chip }

func (s *GPIOSource) Start(ctx context.Context, m *Monitor) error {
	if len(s.Lines) == 0 {
		return nil
	}
	return errors.New("gpio input is only supported on linux")
}

func (s *GPIOSource) Stop() error { return nil }
