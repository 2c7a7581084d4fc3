package gpio

import (
	"errors"
	"fmt"
)

// FakeLine is a test double that returns scripted values.
type FakeLine struct {
	// Values contains scripted readings.
	// Each call to Read() consumes the next value.
	Values []Value

	// index tracks current position in Values
	index int

	// Reads counts calls to Read, including failed ones.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeLine creates a FakeLine with the given values.
func NewFakeLine(values ...Value) *FakeLine {
	return &FakeLine{Values: values}
}

// Read returns the next scripted value.
// If values are exhausted, returns the last value repeatedly.
func (f *FakeLine) Read() (Value, error) {
	f.Reads++
	if f.ReadError != nil {
		return Disabled, f.ReadError
	}
	if len(f.Values) == 0 {
		return Disabled, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first value.
func (f *FakeLine) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeChip hands out pre-registered FakeLines by offset.
type FakeChip struct {
	Lines     map[int]*FakeLine
	ActiveLow map[int]bool
	Closed    bool
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		Lines:     make(map[int]*FakeLine),
		ActiveLow: make(map[int]bool),
	}
}

// Line returns the FakeLine registered at offset and records the polarity
// it was requested with.
func (c *FakeChip) Line(offset int, activeLow bool) (Line, error) {
	l, ok := c.Lines[offset]
	if !ok {
		return nil, fmt.Errorf("request line %d: no such line", offset)
	}
	c.ActiveLow[offset] = activeLow
	return l, nil
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.Closed = true
	return nil
}
