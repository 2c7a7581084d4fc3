//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpio keeps a single process-wide mapping of the GPIO registers.
var rpioMu sync.Mutex

// RaspberryChip reads lines through the memory-mapped BCM2835 registers.
// Offsets are BCM pin numbers.
type RaspberryChip struct{}

// OpenRaspberryChip maps the GPIO registers (/dev/gpiomem).
func OpenRaspberryChip() (*RaspberryChip, error) {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}
	return &RaspberryChip{}, nil
}

// Line configures pin as an input. The register value is raw, so polarity
// is applied in Read.
func (c *RaspberryChip) Line(offset int, activeLow bool) (Line, error) {
	if offset < 0 || offset > 53 {
		return nil, fmt.Errorf("request line %d: not a BCM pin", offset)
	}
	pin := rpio.Pin(offset)
	pin.Input()
	if activeLow {
		pin.PullUp()
	} else {
		pin.PullDown()
	}
	return &RaspberryLine{pin: pin, activeLow: activeLow}, nil
}

// Close unmaps the registers.
func (c *RaspberryChip) Close() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	return rpio.Close()
}

// RaspberryLine is a single BCM pin.
type RaspberryLine struct {
	pin       rpio.Pin
	activeLow bool
}

// Read returns the logical pin state. Register reads cannot fail.
func (l *RaspberryLine) Read() (Value, error) {
	high := l.pin.Read() == rpio.High
	if high != l.activeLow {
		return Enabled, nil
	}
	return Disabled, nil
}

// Close returns the pin to input with pull-down.
func (l *RaspberryLine) Close() error {
	l.pin.Input()
	l.pin.PullDown()
	return nil
}
