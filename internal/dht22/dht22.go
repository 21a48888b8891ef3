// Package dht22 reads DHT22/AM2302 humidity/temperature sensors over their
// single-wire pulse-width protocol.
//
// One Sensor owns a single capture session shared by every configured
// channel, so at most one read is in flight system-wide. A read is driven in
// three steps: BeginRead arms the session and wakes the sensor, the caller
// waits the settle interval while falling edges are recorded, then Decode and
// TakeResult produce the outcome. Read bundles the sequence.
package dht22

import (
	"errors"
	"fmt"
	"time"
)

// Protocol layout. A transmission records one start marker timestamp, two
// handshake edges from the sensor, and one falling edge per data bit.
const (
	startMarkerEdges = 1
	handshakeEdges   = 2
	dataBits         = 40

	// preambleEdges is the number of recorded edges before the first data
	// bit's pulse ends; data bit i ends at timestamp index i+preambleEdges.
	preambleEdges = startMarkerEdges + handshakeEdges

	// edgeCapacity is the full timestamp buffer: 43 slots.
	edgeCapacity = startMarkerEdges + handshakeEdges + dataBits

	dataBytes = 5
)

// Protocol timing.
const (
	// startLowPulse is how long the host holds the line low to request a
	// reading. The datasheet asks for at least 1ms.
	startLowPulse = 1500 * time.Microsecond

	// minFirstEdgeGap filters spurious edges between the start marker and
	// the sensor's genuine handshake low pulse.
	minFirstEdgeGap = 500 * time.Microsecond

	// bitThreshold separates a transmitted 0 from a 1. Per the AM2302
	// datasheet the longest "0" period is 85µs and the shortest "1" period
	// is 116µs; 101µs sits between the two.
	bitThreshold = 101 * time.Microsecond

	// minReadSpacing is the shortest allowed gap between two reads of the
	// same sensor.
	minReadSpacing = 2100 * time.Millisecond

	// DefaultSettle is the default wait between starting a read and
	// decoding. A full transmission takes less than 6ms.
	DefaultSettle = 20 * time.Millisecond
)

// phase is the capture session's position in its lifecycle.
type phase int

const (
	phaseIdle phase = iota
	phaseCollecting
	phaseOK
	phaseChecksumError
	phaseOtherError
	phaseTooSoon
)

// ChannelState tracks whether a channel's pin and interrupt resources are
// usable.
type ChannelState int

const (
	StateUnconfigured ChannelState = iota
	StateReady
	StatePinError
	StateInterruptError
)

// String returns a short label for logs and the status page.
func (s ChannelState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePinError:
		return "pin-error"
	case StateInterruptError:
		return "interrupt-error"
	default:
		return "unconfigured"
	}
}

// ChannelStatus reports one channel's configuration outcome.
type ChannelStatus struct {
	Channel int
	Pin     int
	State   ChannelState
}

// Sentinel errors returned by BeginRead and Decode.
var (
	// ErrReaderBusy means another read owns the shared session, or a prior
	// outcome has not been consumed yet.
	ErrReaderBusy = errors.New("dht22: reader busy")

	// ErrChannelUnavailable means the channel was never configured or its
	// resources failed; reconfigure before retrying.
	ErrChannelUnavailable = errors.New("dht22: channel unavailable")

	// ErrTooSoon means the channel was read less than the minimum spacing
	// ago. The rejection itself is a completed attempt: consume it with
	// TakeResult before the next read.
	ErrTooSoon = errors.New("dht22: read too soon")

	// ErrIO means the start sequence failed or too few edges arrived.
	ErrIO = errors.New("dht22: io error")

	// ErrNoRead means Decode was called with no read armed.
	ErrNoRead = errors.New("dht22: no read in progress")
)

// Status is the outcome vocabulary exposed to callers. The values are the
// exact strings prior text-based consumers expect.
type Status string

const (
	StatusOK            Status = "Ok"
	StatusChecksumError Status = "ChecksumError"
	StatusTooSoon       Status = "ReadTooSoon"
	StatusNotRead       Status = "NotRead"
	StatusReaderBusy    Status = "ReaderBusy"
	StatusIOError       Status = "IOError"
)

// Measurement is one decoded sensor reading.
type Measurement struct {
	// Negative is the temperature sign.
	Negative bool

	// Temperature is the magnitude in tenths of a degree Celsius.
	Temperature int

	// Humidity is relative humidity in tenths of a percent.
	Humidity int
}

// TemperatureC returns the signed temperature in degrees Celsius.
func (m Measurement) TemperatureC() float64 {
	t := float64(m.Temperature) / 10
	if m.Negative {
		return -t
	}
	return t
}

// HumidityPct returns the relative humidity in percent.
func (m Measurement) HumidityPct() float64 {
	return float64(m.Humidity) / 10
}

// Result is one consumed read outcome. Measurement is only meaningful when
// Status is StatusOK.
type Result struct {
	Status      Status
	Measurement Measurement
}

// String formats the result in the legacy text form:
// "Ok;<sign><temp>.<frac>;<hum>.<frac>" on success, the bare status
// otherwise.
func (r Result) String() string {
	if r.Status != StatusOK {
		return string(r.Status)
	}
	sign := ""
	if r.Measurement.Negative {
		sign = "-"
	}
	return fmt.Sprintf("Ok;%s%d.%d;%d.%d",
		sign,
		r.Measurement.Temperature/10, r.Measurement.Temperature%10,
		r.Measurement.Humidity/10, r.Measurement.Humidity%10)
}
