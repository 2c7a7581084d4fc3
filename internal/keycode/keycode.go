// Package keycode maps human-readable key names to Linux input event codes.
package keycode

import (
	"fmt"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// Keycode is a key from the supported vocabulary. The zero value is not a
// valid key.
type Keycode struct {
	name string
	code evdev.EvCode
}

// Parse looks up a key by name. Names are case-insensitive.
func Parse(name string) (Keycode, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	code, ok := names[n]
	if !ok {
		return Keycode{}, fmt.Errorf("unsupported keycode %q", name)
	}
	return Keycode{name: n, code: code}, nil
}

// MustParse is like Parse but panics on unknown names. For tests and tables.
func MustParse(name string) Keycode {
	k, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return k
}

// Code returns the Linux input event code.
func (k Keycode) Code() evdev.EvCode {
	return k.code
}

// String returns the canonical (upper-case) name.
func (k Keycode) String() string {
	if k.name == "" {
		return "NONE"
	}
	return k.name
}

// IsZero reports whether k is the zero value.
func (k Keycode) IsZero() bool {
	return k.name == ""
}

// UnmarshalText implements encoding.TextUnmarshaler for config decoding.
func (k *Keycode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Keycode) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Names returns every supported key name, unordered.
func Names() []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	return out
}

var names = map[string]evdev.EvCode{
	"A": evdev.KEY_A, "B": evdev.KEY_B, "C": evdev.KEY_C, "D": evdev.KEY_D,
	"E": evdev.KEY_E, "F": evdev.KEY_F, "G": evdev.KEY_G, "H": evdev.KEY_H,
	"I": evdev.KEY_I, "J": evdev.KEY_J, "K": evdev.KEY_K, "L": evdev.KEY_L,
	"M": evdev.KEY_M, "N": evdev.KEY_N, "O": evdev.KEY_O, "P": evdev.KEY_P,
	"Q": evdev.KEY_Q, "R": evdev.KEY_R, "S": evdev.KEY_S, "T": evdev.KEY_T,
	"U": evdev.KEY_U, "V": evdev.KEY_V, "W": evdev.KEY_W, "X": evdev.KEY_X,
	"Y": evdev.KEY_Y, "Z": evdev.KEY_Z,

	"0": evdev.KEY_0, "1": evdev.KEY_1, "2": evdev.KEY_2, "3": evdev.KEY_3,
	"4": evdev.KEY_4, "5": evdev.KEY_5, "6": evdev.KEY_6, "7": evdev.KEY_7,
	"8": evdev.KEY_8, "9": evdev.KEY_9,

	"ENTER":     evdev.KEY_ENTER,
	"SPACE":     evdev.KEY_SPACE,
	"ESCAPE":    evdev.KEY_ESC,
	"TAB":       evdev.KEY_TAB,
	"BACKSPACE": evdev.KEY_BACKSPACE,
	"CAPSLOCK":  evdev.KEY_CAPSLOCK,

	"UP":    evdev.KEY_UP,
	"DOWN":  evdev.KEY_DOWN,
	"LEFT":  evdev.KEY_LEFT,
	"RIGHT": evdev.KEY_RIGHT,

	"LCTRL":  evdev.KEY_LEFTCTRL,
	"RCTRL":  evdev.KEY_RIGHTCTRL,
	"LSHIFT": evdev.KEY_LEFTSHIFT,
	"RSHIFT": evdev.KEY_RIGHTSHIFT,
	"LALT":   evdev.KEY_LEFTALT,
	"RALT":   evdev.KEY_RIGHTALT,

	"F1": evdev.KEY_F1, "F2": evdev.KEY_F2, "F3": evdev.KEY_F3,
	"F4": evdev.KEY_F4, "F5": evdev.KEY_F5, "F6": evdev.KEY_F6,
	"F7": evdev.KEY_F7, "F8": evdev.KEY_F8, "F9": evdev.KEY_F9,
	"F10": evdev.KEY_F10, "F11": evdev.KEY_F11, "F12": evdev.KEY_F12,

	"HOME":     evdev.KEY_HOME,
	"END":      evdev.KEY_END,
	"PAGEUP":   evdev.KEY_PAGEUP,
	"PAGEDOWN": evdev.KEY_PAGEDOWN,
	"INSERT":   evdev.KEY_INSERT,
	"DELETE":   evdev.KEY_DELETE,

	"-":  evdev.KEY_MINUS,
	"=":  evdev.KEY_EQUAL,
	"[":  evdev.KEY_LEFTBRACE,
	"]":  evdev.KEY_RIGHTBRACE,
	"\\": evdev.KEY_BACKSLASH,
	";":  evdev.KEY_SEMICOLON,
	"'":  evdev.KEY_APOSTROPHE,
	"`":  evdev.KEY_GRAVE,
	",":  evdev.KEY_COMMA,
	".":  evdev.KEY_DOT,
	"/":  evdev.KEY_SLASH,

	"NUMPAD_0":        evdev.KEY_KP0,
	"NUMPAD_1":        evdev.KEY_KP1,
	"NUMPAD_2":        evdev.KEY_KP2,
	"NUMPAD_3":        evdev.KEY_KP3,
	"NUMPAD_4":        evdev.KEY_KP4,
	"NUMPAD_5":        evdev.KEY_KP5,
	"NUMPAD_6":        evdev.KEY_KP6,
	"NUMPAD_7":        evdev.KEY_KP7,
	"NUMPAD_8":        evdev.KEY_KP8,
	"NUMPAD_9":        evdev.KEY_KP9,
	"NUMPAD_ENTER":    evdev.KEY_KPENTER,
	"NUMPAD_ADD":      evdev.KEY_KPPLUS,
	"NUMPAD_SUBTRACT": evdev.KEY_KPMINUS,
	"NUMPAD_MULTIPLY": evdev.KEY_KPASTERISK,
	"NUMPAD_DIVIDE":   evdev.KEY_KPSLASH,
}
