// Package gpio provides single-wire GPIO line control with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// EdgeHandler is called once per falling edge on a requested line, with the
// line's pin number and the event timestamp from the monotonic clock. It runs
// on the event delivery goroutine and must not block.
type EdgeHandler func(pin int, ts Timestamp)

// Chip reserves GPIO lines and delivers edge events.
type Chip interface {
	// ProbeLine checks that the pin exists on the chip.
	ProbeLine(pin int) error

	// RequestLine reserves the pin as an input with falling-edge event
	// delivery to handler. The returned Line starts in input mode.
	RequestLine(pin int, handler EdgeHandler) (Line, error)

	// Close releases the chip. Lines must be closed first.
	Close() error
}

// Line is a single reserved GPIO line.
type Line interface {
	// SetOutput switches the line to output mode at the given level.
	SetOutput(value int) error

	// SetValue sets the output level. Only valid in output mode.
	SetValue(value int) error

	// SetInput switches the line back to input mode; falling-edge
	// events resume.
	SetInput() error

	// Value reads the current input level.
	Value() (int, error)

	// Close releases the line.
	Close() error
}

// DefaultChipName is the GPIO character device used on a Raspberry Pi.
const DefaultChipName = "gpiochip0"
