// Package mqtt publishes key and lifecycle events to an MQTT broker,
// with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gpio2key/internal/logic"
)

// Topics are the MQTT topics derived from the configured prefix.
type Topics struct {
	Events string // key events
	System string // lifecycle events
}

// TopicsFor returns the topics under prefix.
func TopicsFor(prefix string) Topics {
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a key event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventPowerSwitch = "POWER_SWITCH"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// SystemEvent represents a system lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. EventStartup, EventShutdown
	Reason     string // e.g. "SIGTERM", "POWER_SWITCH" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message payload for a key event.
type Payload struct {
	Key KeyPayload `json:"key"`
}

// KeyPayload contains the key event details.
type KeyPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Keycode   string `json:"keycode"`
	GPIO      int    `json:"gpio"`
}

// FormatPayload creates the JSON payload for a key event.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Key: KeyPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:     event.Type.String(),
			Keycode:   event.Key.String(),
			GPIO:      event.Line,
		},
	})
}

// SystemPayload is the MQTT payload for system events that don't carry
// a full status snapshot (LWT, RECONNECTED, POWER_SWITCH).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the retained last-will message the broker publishes if
// the connection drops without a clean disconnect.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: EventOffline, Reason: "CONNECTION_LOST"})
	return data
}
