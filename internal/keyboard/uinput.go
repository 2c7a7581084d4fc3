//go:build linux

package keyboard

import (
	"fmt"

	evdev "github.com/holoplot/go-evdev"
	"github.com/sweeney/gpio2key/internal/keycode"
)

const busVirtual = 0x06

// Uinput is a virtual keyboard created through /dev/uinput.
type Uinput struct {
	dev *evdev.InputDevice
}

// NewUinput creates a virtual keyboard advertising exactly keys.
func NewUinput(keys []keycode.Keycode) (*Uinput, error) {
	codes := make([]evdev.EvCode, 0, len(keys))
	for _, k := range keys {
		codes = append(codes, k.Code())
	}
	dev, err := evdev.CreateDevice(DeviceName, evdev.InputID{
		BusType: busVirtual,
		Vendor:  0x1209,
		Product: 0x2b4b,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
	})
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	return &Uinput{dev: dev}, nil
}

// KeyDown emits a key press.
func (u *Uinput) KeyDown(k keycode.Keycode) error {
	return u.emit(k, ActionDown)
}

// KeyUp emits a key release.
func (u *Uinput) KeyUp(k keycode.Keycode) error {
	return u.emit(k, ActionUp)
}

// KeyRepeat emits an auto-repeat.
func (u *Uinput) KeyRepeat(k keycode.Keycode) error {
	return u.emit(k, ActionRepeat)
}

// emit writes the key event followed by a SYN_REPORT so readers see it
// as one complete frame.
func (u *Uinput) emit(k keycode.Keycode, a Action) error {
	if err := u.dev.WriteOne(&evdev.InputEvent{
		Type:  evdev.EV_KEY,
		Code:  k.Code(),
		Value: int32(a),
	}); err != nil {
		return fmt.Errorf("emit %s %s: %w", k, a, err)
	}
	if err := u.dev.WriteOne(&evdev.InputEvent{
		Type:  evdev.EV_SYN,
		Code:  evdev.SYN_REPORT,
		Value: 0,
	}); err != nil {
		return fmt.Errorf("emit %s %s sync: %w", k, a, err)
	}
	return nil
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	return u.dev.Close()
}
