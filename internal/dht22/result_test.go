package dht22

import (
	"testing"
	"time"
)

func TestTakeResultAlwaysResetsToIdle(t *testing.T) {
	s, chip, clk := newTestSensor(t, 4, 17)

	scenarios := []struct {
		name string
		run  func(t *testing.T)
		want Status
	}{
		{
			name: "ok",
			run: func(t *testing.T) {
				start := clk.now
				if err := s.BeginRead(0); err != nil {
					t.Fatalf("BeginRead: %v", err)
				}
				fireFrame(chip, 4, start, widthsForBytes([5]byte{}))
				s.Decode()
			},
			want: StatusOK,
		},
		{
			name: "checksum error",
			run: func(t *testing.T) {
				start := clk.now
				if err := s.BeginRead(0); err != nil {
					t.Fatalf("BeginRead: %v", err)
				}
				fireFrame(chip, 4, start, widthsForBytes([5]byte{0, 0, 0, 1, 99}))
				s.Decode()
			},
			want: StatusChecksumError,
		},
		{
			name: "too soon",
			run: func(t *testing.T) {
				// Complete a read, then retry inside the window.
				if res := readOK(t, s, chip, clk, 0, 4, [5]byte{}); res.Status != StatusOK {
					t.Fatalf("setup read: %v", res.Status)
				}
				clk.advance(time.Second)
				s.BeginRead(0)
			},
			want: StatusTooSoon,
		},
		{
			name: "short capture",
			run: func(t *testing.T) {
				if err := s.BeginRead(0); err != nil {
					t.Fatalf("BeginRead: %v", err)
				}
				s.Decode()
			},
			want: StatusIOError,
		},
		{
			name: "still collecting",
			run: func(t *testing.T) {
				if err := s.BeginRead(0); err != nil {
					t.Fatalf("BeginRead: %v", err)
				}
			},
			want: StatusNotRead,
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			clk.advance(3 * time.Second)
			sc.run(t)
			res := s.TakeResult()
			if res.Status != sc.want {
				t.Fatalf("status: got %v, want %v", res.Status, sc.want)
			}
			if s.session.phase != phaseIdle {
				t.Errorf("phase after TakeResult: got %v, want Idle", s.session.phase)
			}
		})
	}
}

func TestReadFullCycle(t *testing.T) {
	s, chip, clk := newTestSensor(t, 4)
	b := [5]byte{0x02, 0x58, 0x00, 0xFA, 0x54}

	// The frame arrives while Read sleeps out the settle interval.
	start := clk.now
	s.sleep = func(d time.Duration) {
		if d == DefaultSettle {
			fireFrame(chip, 4, start, widthsForBytes(b))
		}
	}

	res := s.Read(0)
	if res.Status != StatusOK {
		t.Fatalf("status: got %v, want Ok", res.Status)
	}
	if got := res.String(); got != "Ok;25.0;60.0" {
		t.Errorf("String: got %q, want %q", got, "Ok;25.0;60.0")
	}

	// The outcome was consumed; the session is open for the next read.
	if s.session.phase != phaseIdle {
		t.Errorf("phase after Read: got %v, want Idle", s.session.phase)
	}
}

func TestReadBusyDoesNotConsumeOutstandingSession(t *testing.T) {
	s, _, _ := newTestSensor(t, 4, 17)
	if err := s.BeginRead(0); err != nil {
		t.Fatalf("BeginRead: %v", err)
	}

	res := s.Read(1)
	if res.Status != StatusReaderBusy {
		t.Fatalf("status: got %v, want ReaderBusy", res.Status)
	}
	if s.session.phase != phaseCollecting {
		t.Errorf("outstanding session consumed: phase %v, want Collecting", s.session.phase)
	}
}

func TestReadUnavailableChannel(t *testing.T) {
	s, _, _ := newTestSensor(t, 4)
	if res := s.Read(7); res.Status != StatusIOError {
		t.Fatalf("status: got %v, want IOError", res.Status)
	}
	if s.session.phase != phaseIdle {
		t.Errorf("phase: got %v, want Idle", s.session.phase)
	}
}

func TestReadTooSoonSameChannel(t *testing.T) {
	s, chip, clk := newTestSensor(t, 4)
	if res := readOK(t, s, chip, clk, 0, 4, [5]byte{}); res.Status != StatusOK {
		t.Fatalf("setup read: %v", res.Status)
	}

	clk.advance(time.Second)
	if res := s.Read(0); res.Status != StatusTooSoon {
		t.Fatalf("status: got %v, want ReadTooSoon", res.Status)
	}

	// The rejection was itself consumed; after the window the channel reads.
	clk.advance(3 * time.Second)
	if err := s.BeginRead(0); err != nil {
		t.Errorf("BeginRead after window: %v", err)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		res  Result
		want string
	}{
		{Result{Status: StatusOK, Measurement: Measurement{Temperature: 234, Humidity: 567}}, "Ok;23.4;56.7"},
		{Result{Status: StatusOK, Measurement: Measurement{Negative: true, Temperature: 5, Humidity: 1000}}, "Ok;-0.5;100.0"},
		{Result{Status: StatusChecksumError}, "ChecksumError"},
		{Result{Status: StatusTooSoon}, "ReadTooSoon"},
		{Result{Status: StatusNotRead}, "NotRead"},
		{Result{Status: StatusReaderBusy}, "ReaderBusy"},
		{Result{Status: StatusIOError}, "IOError"},
	}
	for _, tt := range tests {
		if got := tt.res.String(); got != tt.want {
			t.Errorf("String: got %q, want %q", got, tt.want)
		}
	}
}
