//go:build linux

package input

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSource treats a set of GPIO lines (push buttons) as one input device.
// Every edge on any line is an event.
type GPIOSource struct {
	Chip   string
	Lines  []int
	Logger Logger

	monitor *Monitor
	handle  atomic.Pointer[Handle]
}

func NewGPIOSource(chip string, lines []int) *GPIOSource {
	if chip == "" {
		chip = "gpiochip0"
	}
	return &GPIOSource{Chip: chip, Lines: lines}
}

func (s *GPIOSource) Name() string { return "gpio:" + s.Chip }

// Start attaches the lines. A failure to attach is local to this device and
// only logged.
func (s *GPIOSource) Start(ctx context.Context, m *Monitor) error {
	if len(s.Lines) == 0 {
		return nil
	}
	s.monitor = m
	dev := &gpioDevice{chip: s.Chip, offsets: s.Lines, onEdge: s.onEdge}
	h, err := m.Connect(dev)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("input", "attach %s: %v", s.Name(), err)
		}
		return nil
	}
	s.handle.Store(h)
	return nil
}

func (s *GPIOSource) Stop() error {
	if h := s.handle.Swap(nil); h != nil {
		s.monitor.Disconnect(h)
	}
	return nil
}

func (s *GPIOSource) onEdge(evt gpiocdev.LineEvent) {
	value := int32(0)
	if evt.Type == gpiocdev.LineEventRisingEdge {
		value = 1
	}
	s.monitor.Event(s.handle.Load(), EvKey, uint16(evt.Offset), value)
}

type gpioDevice struct {
	chip    string
	offsets []int
	onEdge  func(gpiocdev.LineEvent)

	c     *gpiocdev.Chip
	lines []*gpiocdev.Line
}

func (d *gpioDevice) Name() string {
	parts := make([]string, len(d.offsets))
	for i, o := range d.offsets {
		parts[i] = fmt.Sprint(o)
	}
	return d.chip + ":" + strings.Join(parts, ",")
}

func (d *gpioDevice) Open() error {
	chip, err := gpiocdev.NewChip(d.chip)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	d.c = chip
	for _, offset := range d.offsets {
		line, err := chip.RequestLine(offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(d.onEdge))
		if err != nil {
			d.Close()
			return fmt.Errorf("request line %d: %w", offset, err)
		}
		d.lines = append(d.lines, line)
	}
	return nil
}

func (d *gpioDevice) Close() error {
	for _, line := range d.lines {
		line.Close()
	}
	d.lines = nil
	if d.c != nil {
		d.c.Close()
		d.c = nil
	}
	return nil
}
