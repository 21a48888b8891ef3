//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*RealChip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ProbeLine is not implemented on non-Linux platforms.
func (c *RealChip) ProbeLine(pin int) error {
	return errors.New("gpio: not supported")
}

// RequestLine is not implemented on non-Linux platforms.
func (c *RealChip) RequestLine(pin int, handler EdgeHandler) (Line, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}

var stubStart = time.Now()

// MonotonicNow falls back to the Go runtime's monotonic clock.
func MonotonicNow() Timestamp {
	return time.Since(stubStart)
}
