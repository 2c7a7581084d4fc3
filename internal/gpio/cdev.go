//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CdevChip hands out lines from a Linux GPIO character device.
type CdevChip struct {
	chip *gpiocdev.Chip
}

// OpenCdevChip opens the character device at path (e.g. /dev/gpiochip0).
func OpenCdevChip(path string) (*CdevChip, error) {
	chip, err := gpiocdev.NewChip(path, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", path, err)
	}
	return &CdevChip{chip: chip}, nil
}

// Line requests offset as an input. The kernel applies the polarity, so
// Value() already reports the logical state.
func (c *CdevChip) Line(offset int, activeLow bool) (Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if activeLow {
		opts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.AsActiveLow, gpiocdev.WithPullUp}
	}
	l, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}
	return &CdevLine{line: l, offset: offset}, nil
}

// Close releases the chip.
func (c *CdevChip) Close() error {
	return c.chip.Close()
}

// CdevLine is a single input line on a character device.
type CdevLine struct {
	line   *gpiocdev.Line
	offset int
}

// Read returns the logical line state.
func (l *CdevLine) Read() (Value, error) {
	v, err := l.line.Value()
	if err != nil {
		return Disabled, fmt.Errorf("read line %d: %w", l.offset, err)
	}
	if v == 1 {
		return Enabled, nil
	}
	return Disabled, nil
}

// Close releases the line.
// Reconfigures it as input with pull-down (matching Pi boot defaults) first,
// so attached hardware does not see a floating pin across a reboot.
func (l *CdevLine) Close() error {
	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.offset, err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close line %d: %w", l.offset, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
