package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/dht22d/internal/dht22"
	"github.com/sweeney/dht22d/internal/mqtt"
	"github.com/sweeney/dht22d/internal/status"
)

func TestParsePins(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"4", []int{4}, false},
		{"4,17", []int{4, 17}, false},
		{"4;17 22", []int{4, 17, 22}, false},
		{" 4 , 17 ", []int{4, 17}, false},
		{"", nil, true},
		{"4,x", nil, true},
	}

	for _, tt := range tests {
		got, err := parsePins(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePins(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePins(%q): %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parsePins(%q): got %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parsePins(%q): got %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestReadableChannels(t *testing.T) {
	statuses := []dht22.ChannelStatus{
		{Channel: 0, Pin: 4, State: dht22.StateReady},
		{Channel: 1, Pin: 5, State: dht22.StatePinError},
		{Channel: 2, Pin: 22, State: dht22.StateReady},
	}
	got := readableChannels(statuses)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("readableChannels: got %v, want [0 2]", got)
	}
}

// fakeReader returns scripted results in order, repeating the last one.
type fakeReader struct {
	results []dht22.Result
	calls   []int
}

func (f *fakeReader) Read(channel int) dht22.Result {
	f.calls = append(f.calls, channel)
	i := len(f.calls) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

func TestRunLoopPublishesReadings(t *testing.T) {
	reader := &fakeReader{results: []dht22.Result{
		{Status: dht22.StatusOK, Measurement: dht22.Measurement{Temperature: 215, Humidity: 500}},
		{Status: dht22.StatusChecksumError},
	}}
	publisher := mqtt.NewFakePublisher()
	publisher.Connected = true
	tracker := status.NewTracker(time.Now(), status.Config{})
	tracker.SetChannels([]dht22.ChannelStatus{
		{Channel: 0, Pin: 4, State: dht22.StateReady},
		{Channel: 1, Pin: 17, State: dht22.StateReady},
	})

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(reader, publisher, publisher, tracker,
			[]int{4, 17}, []int{0, 1}, 0, time.Now, tick, sig)
	}()

	tick <- time.Now()
	tick <- time.Now()
	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	// Round-robin: channel 0 then channel 1.
	if len(reader.calls) != 2 || reader.calls[0] != 0 || reader.calls[1] != 1 {
		t.Errorf("read calls: got %v, want [0 1]", reader.calls)
	}

	if len(publisher.Readings) != 2 {
		t.Fatalf("published readings: got %d, want 2", len(publisher.Readings))
	}
	if publisher.Readings[0].Pin != 4 || publisher.Readings[1].Pin != 17 {
		t.Errorf("reading pins: %d, %d", publisher.Readings[0].Pin, publisher.Readings[1].Pin)
	}
	if publisher.Readings[1].Result.Status != dht22.StatusChecksumError {
		t.Errorf("second reading status: %v", publisher.Readings[1].Result.Status)
	}

	// One SHUTDOWN system event, retained, with a full status payload.
	if len(publisher.SystemEvents) != 1 {
		t.Fatalf("system events: got %d, want 1", len(publisher.SystemEvents))
	}
	ev := publisher.SystemEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SIGTERM" || !ev.Retained {
		t.Errorf("shutdown event: %+v", ev)
	}
	if len(ev.RawPayload) == 0 {
		t.Error("shutdown event missing status payload")
	}

	snap := tracker.Snapshot()
	if snap.Counts.OK != 1 || snap.Counts.Checksum != 1 {
		t.Errorf("counts: %+v", snap.Counts)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	reader := &fakeReader{results: []dht22.Result{{Status: dht22.StatusOK}}}
	publisher := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{})
	tracker.SetChannels([]dht22.ChannelStatus{{Channel: 0, Pin: 4, State: dht22.StateReady}})

	// A fake clock that jumps an hour per tick forces the heartbeat path.
	base := time.Now()
	calls := 0
	now := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(reader, publisher, publisher, tracker,
			[]int{4}, []int{0}, 15*time.Minute, now, tick, sig)
	}()

	tick <- time.Now()
	sig <- syscall.SIGTERM
	<-done

	var heartbeats int
	for _, ev := range publisher.SystemEvents {
		if ev.Event == "HEARTBEAT" {
			heartbeats++
		}
	}
	if heartbeats != 1 {
		t.Errorf("heartbeats: got %d, want 1", heartbeats)
	}
}
