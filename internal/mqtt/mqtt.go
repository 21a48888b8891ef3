// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/dht22d/internal/dht22"
)

// TopicPrefix is the root of all sensor reading topics; readings publish to
// "<TopicPrefix>/<channel>/reading".
const TopicPrefix = "home/dht22"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/dht22/system"

// Reading is one completed read attempt for a channel.
type Reading struct {
	Timestamp time.Time
	Channel   int
	Pin       int
	Result    dht22.Result
}

// Topic returns the reading's publish topic.
func (r Reading) Topic() string {
	return fmt.Sprintf("%s/%d/reading", TopicPrefix, r.Channel)
}

// Publisher publishes readings to MQTT.
type Publisher interface {
	// Publish sends a sensor reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(r Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the reading message payload structure.
type Payload struct {
	Sensor SensorPayload `json:"sensor"`
}

// SensorPayload contains the reading details. Temperature and humidity are
// omitted unless the read succeeded.
type SensorPayload struct {
	Timestamp    string   `json:"timestamp"`
	Channel      int      `json:"channel"`
	Pin          int      `json:"pin"`
	Status       string   `json:"status"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
}

// FormatPayload creates the JSON payload for a sensor reading.
func FormatPayload(r Reading) ([]byte, error) {
	payload := Payload{
		Sensor: SensorPayload{
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Channel:   r.Channel,
			Pin:       r.Pin,
			Status:    string(r.Result.Status),
		},
	}
	if r.Result.Status == dht22.StatusOK {
		temp := r.Result.Measurement.TemperatureC()
		hum := r.Result.Measurement.HumidityPct()
		payload.Sensor.TemperatureC = &temp
		payload.Sensor.HumidityPct = &hum
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
