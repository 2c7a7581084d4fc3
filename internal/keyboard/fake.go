package keyboard

import "github.com/sweeney/gpio2key/internal/keycode"

// Call is one recorded emission.
type Call struct {
	Key    keycode.Keycode
	Action Action
}

// Recorder is a Keyboard that appends every call for test assertions.
type Recorder struct {
	// Calls contains every successful emission, in order.
	Calls []Call

	// Err, if set, is returned by every emission and nothing is recorded.
	Err error

	// Attempts counts emissions including failed ones.
	Attempts int

	// Closed tracks if Close was called.
	Closed bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) KeyDown(k keycode.Keycode) error   { return r.record(k, ActionDown) }
func (r *Recorder) KeyUp(k keycode.Keycode) error     { return r.record(k, ActionUp) }
func (r *Recorder) KeyRepeat(k keycode.Keycode) error { return r.record(k, ActionRepeat) }

func (r *Recorder) record(k keycode.Keycode, a Action) error {
	r.Attempts++
	if r.Err != nil {
		return r.Err
	}
	r.Calls = append(r.Calls, Call{Key: k, Action: a})
	return nil
}

// Close marks the recorder as closed.
func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}

// Actions returns the recorded actions in order.
func (r *Recorder) Actions() []Action {
	out := make([]Action, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Action
	}
	return out
}

// Reset clears recorded calls and injected errors.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Err = nil
	r.Attempts = 0
	r.Closed = false
}
