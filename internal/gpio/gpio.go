// Package gpio provides GPIO input lines with hardware abstraction.
// The real implementations use the Linux GPIO character device or the
// Raspberry Pi register map. The fake implementation allows testing
// without hardware.
package gpio

// Value is the logical state of a line, already corrected for polarity.
type Value int

const (
	Disabled Value = iota
	Enabled
)

func (v Value) String() string {
	if v == Enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// Line reads a single input line.
type Line interface {
	// Read returns the logical state of the line.
	// Active-low lines are inverted before they reach the caller.
	Read() (Value, error)

	// Close releases the line.
	Close() error
}

// Chip hands out input lines by offset.
type Chip interface {
	// Line requests offset as an input. activeLow selects the polarity
	// and the matching bias (pull-up for active-low, pull-down otherwise).
	Line(offset int, activeLow bool) (Line, error)

	// Close releases the chip. Lines must be closed first.
	Close() error
}

// DefaultDevice is the character device used when none is configured.
const DefaultDevice = "/dev/gpiochip0"

// Consumer is the label attached to requested lines.
const Consumer = "gpio2key"
