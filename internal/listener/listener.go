// Package listener drives the key state machines and power switches from
// a single fixed-interval polling loop.
package listener

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/gpio2key/internal/gpio"
	"github.com/sweeney/gpio2key/internal/keyboard"
	"github.com/sweeney/gpio2key/internal/logic"
	"github.com/sweeney/gpio2key/internal/power"
)

// Key binds an input line to a key state machine.
type Key struct {
	Line   gpio.Line
	Offset int
	State  *logic.KeyState
}

// PowerSwitch is a line that powers the host off when enabled.
// It is deliberately not debounced: one enabled reading is authoritative.
type PowerSwitch struct {
	Line   gpio.Line
	Offset int
}

// Observer is notified on the polling goroutine after each key event and
// power switch trigger. Implementations must not block.
type Observer interface {
	OnKeyEvent(e logic.Event)
	OnPowerSwitch(offset int, at time.Time)
}

// Config holds everything a Listener needs. Now and Sleep default to the
// real clock.
type Config struct {
	Exit          *ExitFlag
	Keyboard      keyboard.Keyboard
	Keys          []Key
	PowerSwitches []PowerSwitch
	Shutdowner    power.Shutdowner
	PollInterval  time.Duration
	Observers     []Observer

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Listener owns the keys and switches for the lifetime of the process.
// Only the goroutine calling Run (or Tick) touches them.
type Listener struct {
	exit       *ExitFlag
	keyboard   keyboard.Keyboard
	keys       []Key
	switches   []PowerSwitch
	shutdowner power.Shutdowner
	poll       time.Duration
	observers  []Observer
	now        func() time.Time
	sleep      func(time.Duration)

	poweredOff bool
}

// New creates a Listener. A nil Exit gets a fresh flag.
func New(cfg Config) *Listener {
	l := &Listener{
		exit:       cfg.Exit,
		keyboard:   cfg.Keyboard,
		keys:       cfg.Keys,
		switches:   cfg.PowerSwitches,
		shutdowner: cfg.Shutdowner,
		poll:       cfg.PollInterval,
		observers:  cfg.Observers,
		now:        cfg.Now,
		sleep:      cfg.Sleep,
	}
	if l.exit == nil {
		l.exit = &ExitFlag{}
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.sleep == nil {
		l.sleep = time.Sleep
	}
	return l
}

// Exit returns the flag that stops Run.
func (l *Listener) Exit() *ExitFlag {
	return l.exit
}

// Run polls until the exit flag is set. The flag is checked between ticks,
// so shutdown takes at most one poll interval plus the in-flight tick.
func (l *Listener) Run() {
	log.Infof("listening: keys=%d power_switches=%d poll=%v", len(l.keys), len(l.switches), l.poll)
	for !l.exit.IsSet() {
		l.Tick()
		log.Trace("tick")
		l.sleep(l.poll)
	}
	log.Infof("listener stopped: %s", l.exit.Reason())
}

// Tick polls every key, then every power switch, in configuration order.
// No error stops the tick; failing lines are skipped until the next one.
func (l *Listener) Tick() {
	for i := range l.keys {
		l.pollKey(&l.keys[i])
	}
	for i := range l.switches {
		l.pollSwitch(&l.switches[i])
	}
}

func (l *Listener) pollKey(k *Key) {
	logger := log.WithFields(log.Fields{"key": k.State.Key, "gpio": k.Offset})

	v, err := k.Line.Read()
	if err != nil {
		// State is retained; the next tick's read is the retry.
		logger.Errorf("gpio read error: %v", err)
		return
	}
	now := l.now()
	logger.Tracef("read %s", v)

	ev := k.State.Process(v == gpio.Enabled, now)
	switch ev {
	case logic.None:
		return
	case logic.Press:
		logger.Info("key pressed")
		err = l.keyboard.KeyDown(k.State.Key)
	case logic.Release:
		logger.Info("key released")
		err = l.keyboard.KeyUp(k.State.Key)
	case logic.Repeat:
		logger.Debug("key repeat")
		err = l.keyboard.KeyRepeat(k.State.Key)
	}
	if err != nil {
		// The state machine has already moved on; emission is fire-and-forget.
		logger.Errorf("keyboard emit error: %v", err)
	}

	e := logic.Event{Timestamp: now, Type: ev, Key: k.State.Key, Line: k.Offset}
	for _, o := range l.observers {
		o.OnKeyEvent(e)
	}
}

func (l *Listener) pollSwitch(s *PowerSwitch) {
	v, err := s.Line.Read()
	if err != nil {
		log.WithField("gpio", s.Offset).Errorf("power switch read error: %v", err)
		return
	}
	if v != gpio.Enabled || l.poweredOff {
		return
	}
	l.poweredOff = true

	log.WithField("gpio", s.Offset).Warn("power switch activated, shutting down system")
	// Observers go first: a successful power-off does not return.
	at := l.now()
	for _, o := range l.observers {
		o.OnPowerSwitch(s.Offset, at)
	}
	if err := l.shutdowner.PowerOff(); err != nil {
		log.Errorf("failed to shut down system: %v", err)
	}
	// Stop driving hardware whether or not the power-off went through.
	l.exit.Set(ReasonPowerSwitch)
}
