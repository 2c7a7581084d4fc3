// Package logic contains the pure key state machine.
// This package has NO hardware dependencies (no GPIO, uinput, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/gpio2key/internal/keycode"
)

// State is the debounce/repeat state of a key.
type State int

const (
	StateIdle State = iota
	StatePendingPress
	StateActive
	StateRepeatPending
	StateRepeating
	StatePendingRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePendingPress:
		return "PENDING_PRESS"
	case StateActive:
		return "ACTIVE"
	case StateRepeatPending:
		return "REPEAT_PENDING"
	case StateRepeating:
		return "REPEATING"
	case StatePendingRelease:
		return "PENDING_RELEASE"
	}
	return "UNKNOWN"
}

// Pressed reports whether the key counts as held down. A key awaiting
// release confirmation is still pressed.
func (s State) Pressed() bool {
	switch s {
	case StateActive, StateRepeatPending, StateRepeating, StatePendingRelease:
		return true
	}
	return false
}

// OutEvent is the result of feeding one reading into a KeyState.
type OutEvent int

const (
	None OutEvent = iota
	Press
	Release
	Repeat
)

func (e OutEvent) String() string {
	switch e {
	case None:
		return "NONE"
	case Press:
		return "PRESS"
	case Release:
		return "RELEASE"
	case Repeat:
		return "REPEAT"
	}
	return "UNKNOWN"
}

// RepeatPolicy configures auto-repeat. Both durations must be positive.
type RepeatPolicy struct {
	// Delay before the first repeat, measured from the press.
	Delay time.Duration
	// Rate is the interval between subsequent repeats.
	Rate time.Duration
}

// Event is a non-None OutEvent with its context, handed to observers.
type Event struct {
	Timestamp time.Time
	Type      OutEvent
	Key       keycode.Keycode
	Line      int // GPIO offset
}
