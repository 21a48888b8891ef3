// Package status provides a thread-safe status tracker for the dht22d
// daemon. It is read by HTTP handlers and by heartbeat system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dht22d/internal/dht22"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	SettleMs    int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Chip        string
}

// ChannelSnapshot is one channel's lifetime state and most recent reading.
type ChannelSnapshot struct {
	Pin   int
	State string // resource state label

	// LastStatus is the outcome of the most recent read attempt, empty if
	// the channel was never read.
	LastStatus string
	LastReadAt time.Time

	// TemperatureC/HumidityPct hold the most recent successful
	// measurement; valid only when HasMeasurement.
	HasMeasurement bool
	TemperatureC   float64
	HumidityPct    float64
}

// Counts tracks read outcomes since startup, across all channels.
type Counts struct {
	OK       int
	Checksum int
	TooSoon  int
	Busy     int
	IOError  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Channels      []ChannelSnapshot
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetChannels installs the channel table after (re)configuration. Prior
// per-channel reading history is discarded with the prior table.
func (t *Tracker) SetChannels(statuses []dht22.ChannelStatus) {
	t.mu.Lock()
	t.snap.Channels = make([]ChannelSnapshot, len(statuses))
	for i, st := range statuses {
		t.snap.Channels[i] = ChannelSnapshot{
			Pin:   st.Pin,
			State: st.State.String(),
		}
	}
	t.mu.Unlock()
}

// RecordResult folds one read attempt into the channel's snapshot and the
// outcome counters.
func (t *Tracker) RecordResult(channel int, res dht22.Result, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch res.Status {
	case dht22.StatusOK:
		t.snap.Counts.OK++
	case dht22.StatusChecksumError:
		t.snap.Counts.Checksum++
	case dht22.StatusTooSoon:
		t.snap.Counts.TooSoon++
	case dht22.StatusReaderBusy:
		t.snap.Counts.Busy++
	default:
		t.snap.Counts.IOError++
	}

	if channel < 0 || channel >= len(t.snap.Channels) {
		return
	}
	ch := &t.snap.Channels[channel]
	ch.LastStatus = string(res.Status)
	ch.LastReadAt = at
	if res.Status == dht22.StatusOK {
		ch.HasMeasurement = true
		ch.TemperatureC = res.Measurement.TemperatureC()
		ch.HumidityPct = res.Measurement.HumidityPct()
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Channels = append([]ChannelSnapshot(nil), t.snap.Channels...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
