//go:build !linux

package power

import "errors"

// System is not available on non-Linux platforms.
type System struct{}

// PowerOff returns an error on non-Linux platforms.
func (System) PowerOff() error {
	return errors.New("power: not supported on this platform (requires Linux)")
}
