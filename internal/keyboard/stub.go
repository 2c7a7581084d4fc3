//go:build !linux

package keyboard

import (
	"errors"

	"github.com/sweeney/gpio2key/internal/keycode"
)

var errUnsupported = errors.New("keyboard: uinput not supported on this platform (requires Linux)")

// Uinput is not available on non-Linux platforms.
type Uinput struct{}

// NewUinput returns an error on non-Linux platforms.
func NewUinput(keys []keycode.Keycode) (*Uinput, error) {
	return nil, errUnsupported
}

func (u *Uinput) KeyDown(k keycode.Keycode) error   { return errUnsupported }
func (u *Uinput) KeyUp(k keycode.Keycode) error     { return errUnsupported }
func (u *Uinput) KeyRepeat(k keycode.Keycode) error { return errUnsupported }
func (u *Uinput) Close() error                      { return nil }
