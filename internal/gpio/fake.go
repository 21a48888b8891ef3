package gpio

import "fmt"

// FakeChip is a test double that hands out FakeLines and lets tests fire
// edge events by hand.
type FakeChip struct {
	// ProbeErrors maps pins to errors returned by ProbeLine.
	ProbeErrors map[int]error

	// RequestErrors maps pins to errors returned by RequestLine.
	RequestErrors map[int]error

	// Lines holds the FakeLine for each successfully requested pin.
	Lines map[int]*FakeLine

	// Closed tracks if Close was called.
	Closed bool

	handlers map[int]EdgeHandler
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		ProbeErrors:   map[int]error{},
		RequestErrors: map[int]error{},
		Lines:         map[int]*FakeLine{},
		handlers:      map[int]EdgeHandler{},
	}
}

// ProbeLine returns the scripted error for the pin, if any.
func (c *FakeChip) ProbeLine(pin int) error {
	return c.ProbeErrors[pin]
}

// RequestLine returns a new FakeLine, or the scripted error for the pin.
func (c *FakeChip) RequestLine(pin int, handler EdgeHandler) (Line, error) {
	if err := c.RequestErrors[pin]; err != nil {
		return nil, err
	}
	line := &FakeLine{Pin: pin, Mode: "input"}
	c.Lines[pin] = line
	c.handlers[pin] = handler
	return line, nil
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.Closed = true
	return nil
}

// Fire delivers a falling-edge event for the pin, as the kernel would.
// It is a no-op if the pin was never requested.
func (c *FakeChip) Fire(pin int, ts Timestamp) {
	if h, ok := c.handlers[pin]; ok {
		h(pin, ts)
	}
}

// FakeLine records line operations for test assertions.
type FakeLine struct {
	// Pin is the pin number the line was requested for.
	Pin int

	// Mode is "input" or "output".
	Mode string

	// Level is the last value set while in output mode.
	Level int

	// InputLevel is returned by Value.
	InputLevel int

	// Ops records every operation in order, e.g. "output:0", "value:1", "input".
	Ops []string

	// OutputError, ValueError, InputError, if set, are returned by the
	// corresponding operations.
	OutputError error
	ValueError  error
	InputError  error

	// Closed tracks if Close was called.
	Closed bool
}

// SetOutput switches the fake line to output mode.
func (l *FakeLine) SetOutput(value int) error {
	l.Ops = append(l.Ops, fmt.Sprintf("output:%d", value))
	if l.OutputError != nil {
		return l.OutputError
	}
	l.Mode = "output"
	l.Level = value
	return nil
}

// SetValue records the output level.
func (l *FakeLine) SetValue(value int) error {
	l.Ops = append(l.Ops, fmt.Sprintf("value:%d", value))
	if l.ValueError != nil {
		return l.ValueError
	}
	l.Level = value
	return nil
}

// SetInput switches the fake line back to input mode.
func (l *FakeLine) SetInput() error {
	l.Ops = append(l.Ops, "input")
	if l.InputError != nil {
		return l.InputError
	}
	l.Mode = "input"
	return nil
}

// Value returns the scripted input level.
func (l *FakeLine) Value() (int, error) {
	return l.InputLevel, nil
}

// Close marks the line as closed.
func (l *FakeLine) Close() error {
	l.Closed = true
	return nil
}
