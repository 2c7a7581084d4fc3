package keyboard

import (
	"errors"
	"testing"

	"github.com/sweeney/gpio2key/internal/keycode"
)

func TestRecorderOrder(t *testing.T) {
	r := NewRecorder()
	a := keycode.MustParse("A")

	r.KeyDown(a)
	r.KeyRepeat(a)
	r.KeyUp(a)

	want := []Action{ActionDown, ActionRepeat, ActionUp}
	got := r.Actions()
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
		if r.Calls[i].Key != a {
			t.Errorf("call %d: expected key A, got %s", i, r.Calls[i].Key)
		}
	}
}

func TestRecorderError(t *testing.T) {
	r := NewRecorder()
	r.Err = errors.New("device gone")

	if err := r.KeyDown(keycode.MustParse("B")); err == nil {
		t.Fatal("expected error")
	}
	if len(r.Calls) != 0 {
		t.Errorf("failed emission should not be recorded, got %d", len(r.Calls))
	}
	if r.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", r.Attempts)
	}

	r.Reset()
	if r.Err != nil || r.Attempts != 0 {
		t.Error("Reset should clear error and attempts")
	}
}

func TestActionValues(t *testing.T) {
	// Linux input event values for EV_KEY.
	if ActionUp != 0 || ActionDown != 1 || ActionRepeat != 2 {
		t.Errorf("unexpected action values: up=%d down=%d repeat=%d", ActionUp, ActionDown, ActionRepeat)
	}
	if ActionRepeat.String() != "REPEAT" {
		t.Errorf("got %q", ActionRepeat.String())
	}
}
