package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/dht22d/internal/dht22"
	"github.com/sweeney/dht22d/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      60000,
		SettleMs:    20,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
		Chip:        "gpiochip0",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetChannels([]dht22.ChannelStatus{{Channel: 0, Pin: 4, State: dht22.StateReady}})
	tr.RecordResult(0, dht22.Result{
		Status:      dht22.StatusOK,
		Measurement: dht22.Measurement{Temperature: 231, Humidity: 455},
	}, time.Now())
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Channels) != 1 {
		t.Fatalf("channels: got %d, want 1", len(sj.Status.Channels))
	}
	if sj.Status.Channels[0].LastStatus != "Ok" {
		t.Errorf("last status: got %q, want Ok", sj.Status.Channels[0].LastStatus)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("mqtt connected: got false, want true")
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetChannels([]dht22.ChannelStatus{
		{Channel: 0, Pin: 4, State: dht22.StateReady},
		{Channel: 1, Pin: 5, State: dht22.StatePinError},
	})
	tr.RecordResult(0, dht22.Result{
		Status:      dht22.StatusOK,
		Measurement: dht22.Measurement{Temperature: 231, Humidity: 455},
	}, time.Now())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	html := string(body)
	for _, want := range []string{"DHT22 Sensors", "23.1", "45.5", "pin-error", "gpiochip0"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
