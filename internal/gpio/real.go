//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// RealChip reserves lines on actual hardware via the Linux GPIO character
// device. Falling-edge events carry kernel CLOCK_MONOTONIC timestamps, the
// same clock MonotonicNow reads.
type RealChip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO character device (e.g. "gpiochip0").
func OpenChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer("dht22d"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip}, nil
}

// ProbeLine checks that the pin exists on the chip.
func (c *RealChip) ProbeLine(pin int) error {
	if _, err := c.chip.LineInfo(pin); err != nil {
		return fmt.Errorf("probe pin %d: %w", pin, err)
	}
	return nil
}

// RequestLine reserves the pin as an input with falling-edge events delivered
// to handler. The sensor data line idles high through its pull-up.
func (c *RealChip) RequestLine(pin int, handler EdgeHandler) (Line, error) {
	line, err := c.chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type != gpiocdev.LineEventFallingEdge {
				return
			}
			handler(pin, evt.Timestamp)
		}))
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}
	return &RealLine{line: line}, nil
}

// Close releases the chip.
func (c *RealChip) Close() error {
	return c.chip.Close()
}

// RealLine is a reserved line on a RealChip.
type RealLine struct {
	line *gpiocdev.Line
}

// SetOutput switches the line to output mode at the given level. Edge
// detection is suspended while the line is an output.
func (l *RealLine) SetOutput(value int) error {
	if err := l.line.Reconfigure(gpiocdev.AsOutput(value)); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// SetValue sets the output level.
func (l *RealLine) SetValue(value int) error {
	if err := l.line.SetValue(value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

// SetInput switches the line back to input mode and re-arms falling-edge
// detection.
func (l *RealLine) SetInput() error {
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithFallingEdge); err != nil {
		return fmt.Errorf("set input: %w", err)
	}
	return nil
}

// Value reads the current input level.
func (l *RealLine) Value() (int, error) {
	v, err := l.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read value: %w", err)
	}
	return v, nil
}

// Close releases the line, leaving it as an input so the sensor's pull-up
// holds the bus idle.
func (l *RealLine) Close() error {
	// Best effort; the kernel releases the request regardless.
	l.line.Reconfigure(gpiocdev.AsInput)
	return l.line.Close()
}

// MonotonicNow reads CLOCK_MONOTONIC. Edge event timestamps from the kernel
// use the same clock, so session arithmetic can mix the two.
func MonotonicNow() Timestamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// ClockGettime on CLOCK_MONOTONIC cannot fail on Linux.
		return 0
	}
	return time.Duration(ts.Nano())
}
