package dht22

import (
	"log"
	"sync"
	"time"

	"github.com/sweeney/dht22d/internal/gpio"
)

// session is the single shared capture record. All channels funnel through
// it: at most one read is in flight across the whole Sensor.
//
// session may only be accessed while holding Sensor.mu.
type session struct {
	// pin identifies the channel owning the session. It survives
	// completion so the next BeginRead can apply the spacing check.
	pin        int
	phase      phase
	numEdges   int
	timestamps [edgeCapacity]gpio.Timestamp
	bytes      [dataBytes]byte

	// lastRead is the final edge timestamp of the most recent successful
	// read, used to enforce minReadSpacing.
	lastRead gpio.Timestamp

	negative    bool
	temperature int
	humidity    int
}

// channelSlot is one entry of the channel configuration table.
type channelSlot struct {
	pin   int
	state ChannelState
	line  gpio.Line
}

// Sensor reads DHT22 sensors on one GPIO chip. See the package comment for
// the read protocol.
type Sensor struct {
	// mu guards session. It is a non-sleeping lock because recordEdge
	// runs on the event delivery goroutine.
	mu      spinLock
	session session

	// cfgMu guards the channel table. Configure may sleep while holding
	// it (line requests), and BeginRead holds it across the start
	// sequence so reads serialize against reconfiguration.
	cfgMu    sync.Mutex
	channels []channelSlot

	chip   gpio.Chip
	clock  gpio.Clock
	sleep  func(time.Duration)
	settle time.Duration
}

// New creates a Sensor on the given chip. The clock must share a timestamp
// origin with the chip's edge events; pass gpio.MonotonicNow for real
// hardware.
func New(chip gpio.Chip, clock gpio.Clock) *Sensor {
	return &Sensor{
		chip:   chip,
		clock:  clock,
		sleep:  time.Sleep,
		settle: DefaultSettle,
	}
}

// SetSettle adjusts how long Read waits between arming the session and
// decoding. The default suits the DHT22; raise it for slow fixtures.
func (s *Sensor) SetSettle(d time.Duration) {
	s.settle = d
}

// Configure replaces the channel table with one slot per pin. Prior channels
// are fully quiesced (lines closed, edge delivery stopped) before the new
// mappings exist. The returned statuses report each channel's resource
// state; only StateReady channels accept reads.
func (s *Sensor) Configure(pins []int) []ChannelStatus {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	s.closeChannels()

	s.channels = make([]channelSlot, len(pins))
	statuses := make([]ChannelStatus, len(pins))
	for i, pin := range pins {
		slot := channelSlot{pin: pin, state: StateUnconfigured}
		if err := s.chip.ProbeLine(pin); err != nil {
			log.Printf("dht22: channel %d: probe pin %d: %v", i, pin, err)
			slot.state = StatePinError
		} else if line, err := s.chip.RequestLine(pin, s.recordEdge); err != nil {
			log.Printf("dht22: channel %d: request pin %d: %v", i, pin, err)
			slot.state = StateInterruptError
		} else {
			slot.line = line
			slot.state = StateReady
			log.Printf("dht22: channel %d: pin %d ready", i, pin)
		}
		s.channels[i] = slot
		statuses[i] = ChannelStatus{Channel: i, Pin: pin, State: slot.state}
	}
	return statuses
}

// Close releases all channel lines. The chip itself belongs to the caller.
func (s *Sensor) Close() error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.closeChannels()
	s.channels = nil
	return nil
}

// closeChannels releases every requested line. Caller holds cfgMu.
func (s *Sensor) closeChannels() {
	for i := range s.channels {
		slot := &s.channels[i]
		if slot.line != nil {
			if err := slot.line.Close(); err != nil {
				log.Printf("dht22: close pin %d: %v", slot.pin, err)
			}
			slot.line = nil
		}
		slot.state = StateUnconfigured
	}
}

// BeginRead validates preconditions, arms the shared session for the
// channel, and performs the wake-up drive sequence. On success the sensor's
// falling edges accumulate in the session; the caller must wait the settle
// interval before calling Decode.
//
// Failure modes: ErrReaderBusy if the session is collecting or holds an
// unconsumed outcome (session untouched); ErrChannelUnavailable if the
// channel is not StateReady (session stays idle); ErrTooSoon if the same
// channel completed a read within the spacing window (terminal outcome,
// consume with TakeResult); ErrIO if the drive sequence failed (likewise
// terminal).
func (s *Sensor) BeginRead(channel int) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	now := s.clock()

	if channel < 0 || channel >= len(s.channels) {
		return ErrChannelUnavailable
	}
	slot := &s.channels[channel]

	s.mu.lock()
	if s.session.phase != phaseIdle {
		s.mu.unlock()
		return ErrReaderBusy
	}
	if slot.state != StateReady {
		s.mu.unlock()
		return ErrChannelUnavailable
	}
	// The spacing window is only checked against the channel that last
	// owned the session; a different channel starts immediately.
	if s.session.pin == slot.pin && now-s.session.lastRead < minReadSpacing {
		s.session.phase = phaseTooSoon
		s.mu.unlock()
		return ErrTooSoon
	}
	s.session.pin = slot.pin
	s.session.phase = phaseCollecting
	s.session.negative = false
	s.session.temperature = 0
	s.session.humidity = 0
	s.session.timestamps[0] = now
	s.session.numEdges = 1
	s.mu.unlock()

	// Wake the sensor: hold the line low, raise it, then hand the line
	// back as an input. The handshake and data edges arrive through
	// recordEdge from here on.
	if err := slot.line.SetOutput(0); err != nil {
		log.Printf("dht22: pin %d: drive low: %v", slot.pin, err)
		return s.abortStartSequence()
	}
	s.sleep(startLowPulse)
	if err := slot.line.SetValue(1); err != nil {
		log.Printf("dht22: pin %d: raise high: %v", slot.pin, err)
		return s.abortStartSequence()
	}
	if err := slot.line.SetInput(); err != nil {
		log.Printf("dht22: pin %d: switch to input: %v", slot.pin, err)
		return s.abortStartSequence()
	}
	return nil
}

// abortStartSequence marks the session terminally failed after a drive
// error. Caller holds cfgMu but not mu.
func (s *Sensor) abortStartSequence() error {
	s.mu.lock()
	s.session.phase = phaseOtherError
	s.mu.unlock()
	return ErrIO
}

// recordEdge handles one falling-edge event. It runs on the GPIO event
// delivery goroutine concurrently with any caller, so it does bounded work
// under the session guard: compare, maybe store, return. Discards are
// silent; they are protocol noise filtering, not errors.
func (s *Sensor) recordEdge(pin int, ts gpio.Timestamp) {
	s.mu.lock()
	st := &s.session
	switch {
	case st.phase != phaseCollecting:
		// Not ours to record.
	case st.pin != pin:
		// Another channel's line glitched while we collect.
	case st.numEdges == 0:
	case st.numEdges == 1 && ts-st.timestamps[0] < minFirstEdgeGap:
		// Spurious edge before the sensor's genuine handshake pulse.
	case st.numEdges < edgeCapacity:
		st.timestamps[st.numEdges] = ts
		st.numEdges++
	}
	s.mu.unlock()
}
