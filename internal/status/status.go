// Package status provides a thread-safe status tracker for the gpio2key daemon.
// The polling loop feeds it through listener.Observer; HTTP handlers and
// the MQTT heartbeat read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gpio2key/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Device      string
	Backend     string // "cdev" or "raspberry"
	DryRun      bool
}

// KeyInfo describes a configured key.
type KeyInfo struct {
	GPIO    int
	Keycode string
	Repeat  bool
}

// KeyStatus is the observed state of one key.
type KeyStatus struct {
	KeyInfo
	Pressed   bool
	Presses   int
	Releases  int
	Repeats   int
	LastEvent time.Time
}

// SwitchStatus is the observed state of one power switch.
type SwitchStatus struct {
	GPIO        int
	Triggered   bool
	TriggeredAt time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Keys          []KeyStatus
	Switches      []SwitchStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TotalEvents returns the number of key events seen across all keys.
func (s Snapshot) TotalEvents() int {
	n := 0
	for _, k := range s.Keys {
		n += k.Presses + k.Releases + k.Repeats
	}
	return n
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	// by GPIO offset into snap.Keys / snap.Switches
	keyIdx    map[int]int
	switchIdx map[int]int
}

// NewTracker creates a Tracker for the given keys and power switch offsets.
func NewTracker(startTime time.Time, cfg Config, keys []KeyInfo, switches []int) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		keyIdx:    make(map[int]int, len(keys)),
		switchIdx: make(map[int]int, len(switches)),
	}
	for i, k := range keys {
		t.snap.Keys = append(t.snap.Keys, KeyStatus{KeyInfo: k})
		t.keyIdx[k.GPIO] = i
	}
	for i, gpio := range switches {
		t.snap.Switches = append(t.snap.Switches, SwitchStatus{GPIO: gpio})
		t.switchIdx[gpio] = i
	}
	return t
}

// OnKeyEvent records a key event. Events for unknown lines are ignored.
func (t *Tracker) OnKeyEvent(event logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.keyIdx[event.Line]
	if !ok {
		return
	}
	k := &t.snap.Keys[i]
	switch event.Type {
	case logic.Press:
		k.Pressed = true
		k.Presses++
	case logic.Release:
		k.Pressed = false
		k.Releases++
	case logic.Repeat:
		k.Repeats++
	default:
		return
	}
	k.LastEvent = event.Timestamp
}

// OnPowerSwitch records that a power switch fired.
func (t *Tracker) OnPowerSwitch(offset int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.switchIdx[offset]
	if !ok {
		return
	}
	t.snap.Switches[i].Triggered = true
	t.snap.Switches[i].TriggeredAt = at
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
	s.Keys = append([]KeyStatus(nil), t.snap.Keys...)
	s.Switches = append([]SwitchStatus(nil), t.snap.Switches...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
