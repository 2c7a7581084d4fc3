//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevChip is not available on non-Linux platforms.
type CdevChip struct{}

// OpenCdevChip returns an error on non-Linux platforms.
func OpenCdevChip(path string) (*CdevChip, error) {
	return nil, errUnsupported
}

// Line is not implemented on non-Linux platforms.
func (c *CdevChip) Line(offset int, activeLow bool) (Line, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *CdevChip) Close() error {
	return nil
}

// RaspberryChip is not available on non-Linux platforms.
type RaspberryChip struct{}

// OpenRaspberryChip returns an error on non-Linux platforms.
func OpenRaspberryChip() (*RaspberryChip, error) {
	return nil, errUnsupported
}

// Line is not implemented on non-Linux platforms.
func (c *RaspberryChip) Line(offset int, activeLow bool) (Line, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *RaspberryChip) Close() error {
	return nil
}
