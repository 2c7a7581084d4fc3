// Package keyboard emits key events through a virtual input device.
package keyboard

import "github.com/sweeney/gpio2key/internal/keycode"

// Keyboard emits key events.
type Keyboard interface {
	// KeyDown emits a key press.
	KeyDown(k keycode.Keycode) error

	// KeyUp emits a key release.
	KeyUp(k keycode.Keycode) error

	// KeyRepeat emits an auto-repeat of a held key.
	KeyRepeat(k keycode.Keycode) error

	// Close destroys the device.
	Close() error
}

// Action is the EV_KEY value written for a key event.
type Action int32

const (
	ActionUp     Action = 0
	ActionDown   Action = 1
	ActionRepeat Action = 2
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "UP"
	case ActionDown:
		return "DOWN"
	case ActionRepeat:
		return "REPEAT"
	}
	return "UNKNOWN"
}

// DeviceName is the name the virtual device registers with.
const DeviceName = "gpio2key virtual keyboard"
