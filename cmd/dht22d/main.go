// Command dht22d reads DHT22/AM2302 sensors over GPIO and publishes the
// measurements to MQTT, with an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/dht22d/internal/dht22"
	"github.com/sweeney/dht22d/internal/gpio"
	"github.com/sweeney/dht22d/internal/mqtt"
	"github.com/sweeney/dht22d/internal/status"
	"github.com/sweeney/dht22d/internal/web"
)

func main() {
	pinList := flag.String("pins", "4", "Comma-separated BCM pin numbers, one sensor per pin")
	chipName := flag.String("chip", gpio.DefaultChipName, "GPIO character device name")
	poll := flag.Duration("poll", 60*time.Second, "Interval between sensor reads (round-robin over channels)")
	settle := flag.Duration("settle", dht22.DefaultSettle, "Wait between starting a read and decoding")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	readOnce := flag.Bool("read-once", false, "Read every sensor once, print the results, and exit")

	flag.Parse()

	pins, err := parsePins(*pinList)
	if err != nil {
		log.Fatalf("fatal: -pins: %v", err)
	}

	if err := run(pins, *chipName, *poll, *settle, *broker, *heartbeat, *httpAddr, *readOnce); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parsePins splits a pin list on commas, semicolons, or spaces.
func parsePins(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no pins given")
	}

	pins := make([]int, 0, len(fields))
	for _, f := range fields {
		pin, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad pin %q", f)
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

func run(pins []int, chipName string, poll, settle time.Duration, broker string, heartbeat time.Duration, httpAddr string, readOnce bool) error {
	chip, err := gpio.OpenChip(chipName)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	sensor := dht22.New(chip, gpio.MonotonicNow)
	sensor.SetSettle(settle)
	defer sensor.Close()

	statuses := sensor.Configure(pins)
	readable := readableChannels(statuses)
	if len(readable) == 0 {
		return fmt.Errorf("no readable channels (of %d configured)", len(pins))
	}

	// Read-once mode: print one line per channel in the legacy text form.
	if readOnce {
		for _, ch := range readable {
			res := sensor.Read(ch)
			fmt.Printf("channel %d (pin %d): %s\n", ch, pins[ch], res)
		}
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		SettleMs:    settle.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		Chip:        chipName,
	})
	tracker.SetChannels(statuses)

	// Publish startup event with full status snapshot.
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: pins=%v poll=%v settle=%v broker=%s heartbeat=%v", pins, poll, settle, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sensor, publisher, publisher, tracker, pins, readable, heartbeat, time.Now, ticker.C, sigCh)
}

// readableChannels returns the channel indices that accept reads.
func readableChannels(statuses []dht22.ChannelStatus) []int {
	var readable []int
	for _, st := range statuses {
		if st.State == dht22.StateReady {
			readable = append(readable, st.Channel)
		}
	}
	return readable
}

// sensorReader is the slice of the sensor API the run loop needs.
type sensorReader interface {
	Read(channel int) dht22.Result
}

func runLoop(sensor sensorReader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, pins []int, readable []int, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	next := 0
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			ch := readable[next%len(readable)]
			next++

			res := sensor.Read(ch)
			log.Printf("channel %d (pin %d): %s", ch, pins[ch], res)

			reading := mqtt.Reading{
				Timestamp: t,
				Channel:   ch,
				Pin:       pins[ch],
				Result:    res,
			}
			if err := publisher.Publish(reading); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure.
			}

			if tracker != nil {
				tracker.RecordResult(ch, res, t)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					log.Printf("heartbeat: uptime=%v ok=%d checksum=%d too_soon=%d io=%d",
						snap.Uptime().Truncate(time.Second),
						snap.Counts.OK, snap.Counts.Checksum, snap.Counts.TooSoon, snap.Counts.IOError)
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
