package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Keys          []KeyJSON    `json:"keys"`
	Switches      []SwitchJSON `json:"power_switches"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// KeyJSON is the JSON representation of one key.
type KeyJSON struct {
	GPIO      int    `json:"gpio"`
	Keycode   string `json:"keycode"`
	Repeat    bool   `json:"repeat"`
	Pressed   bool   `json:"pressed"`
	Presses   int    `json:"presses"`
	Releases  int    `json:"releases"`
	Repeats   int    `json:"repeats"`
	LastEvent string `json:"last_event,omitempty"`
}

// SwitchJSON is the JSON representation of one power switch.
type SwitchJSON struct {
	GPIO        int    `json:"gpio"`
	Triggered   bool   `json:"triggered"`
	TriggeredAt string `json:"triggered_at,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Device      string `json:"device"`
	Backend     string `json:"backend"`
	DryRun      bool   `json:"dry_run"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	keys := make([]KeyJSON, 0, len(snap.Keys))
	for _, k := range snap.Keys {
		keys = append(keys, KeyJSON{
			GPIO:      k.GPIO,
			Keycode:   k.Keycode,
			Repeat:    k.Repeat,
			Pressed:   k.Pressed,
			Presses:   k.Presses,
			Releases:  k.Releases,
			Repeats:   k.Repeats,
			LastEvent: formatTime(k.LastEvent),
		})
	}
	switches := make([]SwitchJSON, 0, len(snap.Switches))
	for _, s := range snap.Switches {
		switches = append(switches, SwitchJSON{
			GPIO:        s.GPIO,
			Triggered:   s.Triggered,
			TriggeredAt: formatTime(s.TriggeredAt),
		})
	}

	return StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Keys:          keys,
		Switches:      switches,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Device:      snap.Config.Device,
			Backend:     snap.Config.Backend,
			DryRun:      snap.Config.DryRun,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
