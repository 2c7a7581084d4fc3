package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/gpio2key/internal/config"
	"github.com/sweeney/gpio2key/internal/gpio"
	"github.com/sweeney/gpio2key/internal/keyboard"
	"github.com/sweeney/gpio2key/internal/keycode"
	"github.com/sweeney/gpio2key/internal/listener"
	"github.com/sweeney/gpio2key/internal/logic"
	"github.com/sweeney/gpio2key/internal/mqtt"
	"github.com/sweeney/gpio2key/internal/power"
	"github.com/sweeney/gpio2key/internal/status"
)

const integrationConfig = `
poll_interval_ms = 10
default_debounce_ms = 20

[[keys]]
gpio = 17
keycode = "UP"
repeat = true

[[keys]]
gpio = 27
keycode = "ENTER"
debounce_ms = 0
active_low = false

[[power_switches]]
gpio = 26
`

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// clock advances only when the listener sleeps.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time        { return c.now }
func (c *clock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// timeline returns one value per tick: Enabled for ticks in [from, to),
// Disabled otherwise. The line repeats the last value after that.
func timeline(n, from, to int) []gpio.Value {
	out := make([]gpio.Value, n)
	for i := range out {
		if i >= from && i < to {
			out[i] = gpio.Enabled
		}
	}
	return out
}

type rig struct {
	cfg       *config.Config
	chip      *gpio.FakeChip
	clock     *clock
	keyboard  *keyboard.Recorder
	shutdown  *power.FakeShutdowner
	publisher *mqtt.FakePublisher
	relay     *mqtt.Relay
	tracker   *status.Tracker
	listener  *listener.Listener
}

// newRig wires config, fake lines, listener and every observer the
// daemon uses, the way the command does.
func newRig(t *testing.T, lines map[int][]gpio.Value) *rig {
	t.Helper()
	cfg, err := config.Parse(integrationConfig)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	r := &rig{
		cfg:       cfg,
		chip:      gpio.NewFakeChip(),
		clock:     &clock{now: epoch},
		keyboard:  keyboard.NewRecorder(),
		shutdown:  &power.FakeShutdowner{},
		publisher: mqtt.NewFakePublisher(),
	}
	for offset, values := range lines {
		r.chip.Lines[offset] = gpio.NewFakeLine(values...)
	}

	var keys []listener.Key
	var infos []status.KeyInfo
	for _, k := range cfg.Keys {
		line, err := r.chip.Line(k.GPIO, cfg.KeyActiveLow(k))
		if err != nil {
			t.Fatalf("request gpio %d: %v", k.GPIO, err)
		}
		keys = append(keys, listener.Key{
			Line:   line,
			Offset: k.GPIO,
			State:  logic.NewKeyState(k.Keycode, cfg.KeyDebounce(k), k.RepeatPolicy()),
		})
		infos = append(infos, status.KeyInfo{GPIO: k.GPIO, Keycode: k.Keycode.String(), Repeat: k.Repeat})
	}
	var switches []listener.PowerSwitch
	var offsets []int
	for _, s := range cfg.PowerSwitches {
		line, err := r.chip.Line(s.GPIO, s.ActiveLow)
		if err != nil {
			t.Fatalf("request gpio %d: %v", s.GPIO, err)
		}
		switches = append(switches, listener.PowerSwitch{Line: line, Offset: s.GPIO})
		offsets = append(offsets, s.GPIO)
	}

	r.tracker = status.NewTracker(epoch, status.Config{PollMs: cfg.PollInterval().Milliseconds()}, infos, offsets)
	r.relay = mqtt.NewRelay(r.publisher, 128)
	r.listener = listener.New(listener.Config{
		Keyboard:      r.keyboard,
		Keys:          keys,
		PowerSwitches: switches,
		Shutdowner:    r.shutdown,
		PollInterval:  cfg.PollInterval(),
		Observers:     []listener.Observer{r.tracker, r.relay},
		Now:           r.clock.Now,
		Sleep:         r.clock.Sleep,
	})
	return r
}

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// TestIntegrationFullFlow drives a held key with auto-repeat, a zero-debounce
// tap and a power switch through the real listener, then checks every sink.
func TestIntegrationFullFlow(t *testing.T) {
	r := newRig(t, map[int][]gpio.Value{
		17: timeline(120, 2, 82),  // held 800ms
		27: timeline(120, 10, 11), // one-tick tap
		26: timeline(120, 95, 120),
	})

	r.listener.Run()
	r.relay.Close()

	// Run stops after the tick in which the switch fired.
	if r.clock.now != at(960) {
		t.Errorf("stopped at %v, want %v", r.clock.now.Sub(epoch), 960*time.Millisecond)
	}
	if reason := r.listener.Exit().Reason(); reason != listener.ReasonPowerSwitch {
		t.Errorf("exit reason: got %q", reason)
	}
	if r.shutdown.Calls != 1 {
		t.Errorf("power-off calls: got %d, want 1", r.shutdown.Calls)
	}

	up, enter := keycode.MustParse("UP"), keycode.MustParse("ENTER")
	wantCalls := []keyboard.Call{
		{Key: up, Action: keyboard.ActionDown},    // 40ms: 20ms debounce
		{Key: enter, Action: keyboard.ActionDown}, // 100ms
		{Key: enter, Action: keyboard.ActionUp},   // 110ms
		{Key: up, Action: keyboard.ActionRepeat},  // 540ms: 500ms delay
		{Key: up, Action: keyboard.ActionRepeat},  // 640ms
		{Key: up, Action: keyboard.ActionRepeat},  // 740ms
		{Key: up, Action: keyboard.ActionUp},      // 840ms
	}
	if len(r.keyboard.Calls) != len(wantCalls) {
		t.Fatalf("keyboard calls: got %d, want %d: %+v", len(r.keyboard.Calls), len(wantCalls), r.keyboard.Calls)
	}
	for i, want := range wantCalls {
		if r.keyboard.Calls[i] != want {
			t.Errorf("call %d: got %v %v, want %v %v", i, r.keyboard.Calls[i].Key, r.keyboard.Calls[i].Action, want.Key, want.Action)
		}
	}

	// MQTT sees the same events, stamped with the poll time.
	wantTimes := []time.Time{at(40), at(100), at(110), at(540), at(640), at(740), at(840)}
	if len(r.publisher.Events) != len(wantTimes) {
		t.Fatalf("published events: got %d, want %d", len(r.publisher.Events), len(wantTimes))
	}
	for i, want := range wantTimes {
		if !r.publisher.Events[i].Timestamp.Equal(want) {
			t.Errorf("event %d: at %v, want %v", i, r.publisher.Events[i].Timestamp.Sub(epoch), want.Sub(epoch))
		}
	}

	var first mqtt.Payload
	if err := json.Unmarshal(r.publisher.Payloads[0], &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.Key.Event != "PRESS" || first.Key.Keycode != "UP" || first.Key.GPIO != 17 {
		t.Errorf("unexpected first payload: %+v", first.Key)
	}

	if len(r.publisher.SystemEvents) != 1 || r.publisher.SystemEvents[0].Event != mqtt.EventPowerSwitch {
		t.Fatalf("expected one POWER_SWITCH event, got %+v", r.publisher.SystemEvents)
	}
	if !r.publisher.SystemEvents[0].Timestamp.Equal(at(950)) {
		t.Errorf("power switch at %v", r.publisher.SystemEvents[0].Timestamp.Sub(epoch))
	}

	snap := r.tracker.Snapshot()
	if k := snap.Keys[0]; k.Presses != 1 || k.Repeats != 3 || k.Releases != 1 || k.Pressed {
		t.Errorf("UP status: %+v", k)
	}
	if k := snap.Keys[1]; k.Presses != 1 || k.Releases != 1 || k.Repeats != 0 {
		t.Errorf("ENTER status: %+v", k)
	}
	if s := snap.Switches[0]; !s.Triggered || !s.TriggeredAt.Equal(at(950)) {
		t.Errorf("switch status: %+v", s)
	}
}

// TestIntegrationBounceProducesNothing checks that glitches shorter than the
// debounce window never reach any sink.
func TestIntegrationBounceProducesNothing(t *testing.T) {
	values := timeline(60, 5, 6) // 10ms glitch
	values[20], values[30], values[31] = gpio.Enabled, gpio.Enabled, gpio.Enabled
	r := newRig(t, map[int][]gpio.Value{
		17: values,
		27: timeline(60, 0, 0),
		26: timeline(60, 0, 0),
	})

	for i := 0; i < 60; i++ {
		r.listener.Tick()
		r.clock.Sleep(r.cfg.PollInterval())
	}
	r.relay.Close()

	if len(r.keyboard.Calls) != 0 {
		t.Errorf("expected no keyboard calls, got %+v", r.keyboard.Calls)
	}
	if r.publisher.EventCount() != 0 {
		t.Errorf("expected no published events, got %d", r.publisher.EventCount())
	}
	if r.tracker.Snapshot().TotalEvents() != 0 {
		t.Error("tracker should not have seen events")
	}
	if r.listener.Exit().IsSet() {
		t.Error("exit flag should not be set")
	}
}

// TestIntegrationSinkFailures checks that a broken keyboard and an
// unreachable broker neither stop polling nor lose tracker state.
func TestIntegrationSinkFailures(t *testing.T) {
	r := newRig(t, map[int][]gpio.Value{
		17: timeline(40, 0, 0),
		27: timeline(40, 3, 8),
		26: timeline(40, 0, 0),
	})
	r.keyboard.Err = errors.New("uinput gone")
	r.publisher.PublishError = errors.New("broker down")

	exit := r.listener.Exit()
	for i := 0; i < 40; i++ {
		r.listener.Tick()
		r.clock.Sleep(r.cfg.PollInterval())
	}
	exit.Set(listener.ReasonSIGTERM)
	r.listener.Run() // returns at once
	r.relay.Close()

	if r.keyboard.Attempts != 2 {
		t.Errorf("keyboard attempts: got %d, want 2", r.keyboard.Attempts)
	}
	snap := r.tracker.Snapshot()
	if k := snap.Keys[1]; k.Presses != 1 || k.Releases != 1 {
		t.Errorf("ENTER status: %+v", k)
	}
	if exit.Reason() != listener.ReasonSIGTERM {
		t.Errorf("exit reason: got %q", exit.Reason())
	}
	if r.shutdown.Calls != 0 {
		t.Error("no power-off expected")
	}
}
