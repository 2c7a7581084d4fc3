package logic

import (
	"time"

	"github.com/sweeney/gpio2key/internal/keycode"
)

// KeyState turns sampled line readings for one key into debounced
// press/release events and, when a RepeatPolicy is set, repeat events.
//
// Debounce is symmetric and measured in wall-clock time, so it does not
// depend on the poll interval. A release that bounces back to enabled
// within the debounce window returns to the pressed sub-state it left
// (Active, RepeatPending or Repeating) with its repeat deadline intact.
//
// Not safe for concurrent use; it is owned by the polling goroutine.
type KeyState struct {
	Key keycode.Keycode

	debounce time.Duration
	repeat   *RepeatPolicy

	state State
	// since is when the current state was entered.
	since time.Time
	// deadline is the next repeat time in RepeatPending/Repeating, and is
	// preserved across PendingRelease.
	deadline   time.Time
	lastRepeat time.Time
	revertTo   State
}

// NewKeyState creates a key in the Idle state. A nil repeat disables
// auto-repeat. Negative debounce is treated as zero.
func NewKeyState(key keycode.Keycode, debounce time.Duration, repeat *RepeatPolicy) *KeyState {
	if debounce < 0 {
		debounce = 0
	}
	var rp *RepeatPolicy
	if repeat != nil {
		copied := *repeat
		rp = &copied
	}
	return &KeyState{
		Key:      key,
		debounce: debounce,
		repeat:   rp,
		state:    StateIdle,
	}
}

// Process feeds one reading taken at now and returns at most one event.
func (k *KeyState) Process(enabled bool, now time.Time) OutEvent {
	switch k.state {
	case StateIdle:
		if !enabled {
			return None
		}
		k.enter(StatePendingPress, now)
		// A zero debounce confirms on the same reading.
		return k.confirmPress(now)

	case StatePendingPress:
		if !enabled {
			// Bounce
			k.enter(StateIdle, now)
			return None
		}
		return k.confirmPress(now)

	case StateActive, StateRepeatPending, StateRepeating:
		if !enabled {
			k.revertTo = k.state
			k.enter(StatePendingRelease, now)
			return k.confirmRelease(now)
		}
		return k.checkRepeat(now)

	case StatePendingRelease:
		if enabled {
			// Bounce: resume the pressed sub-state. The repeat deadline was
			// never touched, so a repeat that fell due during the glitch
			// fires now.
			k.enter(k.revertTo, now)
			return k.checkRepeat(now)
		}
		return k.confirmRelease(now)
	}
	return None
}

func (k *KeyState) confirmPress(now time.Time) OutEvent {
	if now.Sub(k.since) < k.debounce {
		return None
	}
	if k.repeat != nil {
		k.deadline = now.Add(k.repeat.Delay)
		k.enter(StateRepeatPending, now)
	} else {
		k.enter(StateActive, now)
	}
	return Press
}

func (k *KeyState) confirmRelease(now time.Time) OutEvent {
	if now.Sub(k.since) < k.debounce {
		return None
	}
	k.deadline = time.Time{}
	k.enter(StateIdle, now)
	return Release
}

// checkRepeat emits at most one Repeat per call. The next deadline is
// measured from now, not from the missed deadline, so a late tick never
// produces a burst.
func (k *KeyState) checkRepeat(now time.Time) OutEvent {
	if k.state != StateRepeatPending && k.state != StateRepeating {
		return None
	}
	if now.Before(k.deadline) {
		return None
	}
	if k.state != StateRepeating {
		k.enter(StateRepeating, now)
	}
	k.deadline = now.Add(k.repeat.Rate)
	k.lastRepeat = now
	return Repeat
}

func (k *KeyState) enter(s State, now time.Time) {
	k.state = s
	k.since = now
}

// State returns the current state.
func (k *KeyState) State() State {
	return k.state
}

// Since returns when the current state was entered.
func (k *KeyState) Since() time.Time {
	return k.since
}

// Deadline returns the next repeat time, or the zero time when no repeat
// is scheduled.
func (k *KeyState) Deadline() time.Time {
	return k.deadline
}

// LastRepeat returns when the last Repeat was emitted.
func (k *KeyState) LastRepeat() time.Time {
	return k.lastRepeat
}

// Debounce returns the configured debounce duration.
func (k *KeyState) Debounce() time.Duration {
	return k.debounce
}

// Repeat returns the repeat policy, or nil when auto-repeat is off.
func (k *KeyState) Repeat() *RepeatPolicy {
	if k.repeat == nil {
		return nil
	}
	rp := *k.repeat
	return &rp
}
