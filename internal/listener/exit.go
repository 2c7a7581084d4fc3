package listener

import "sync/atomic"

// Exit reasons recorded by the flag's first writer.
const (
	ReasonPowerSwitch = "POWER_SWITCH"
	ReasonSIGINT      = "SIGINT"
	ReasonSIGTERM     = "SIGTERM"
)

// ExitFlag is a process-wide stop request. Once set it stays set.
// Safe for concurrent use: signal handlers set it, the polling loop reads it.
type ExitFlag struct {
	set    atomic.Bool
	reason atomic.Pointer[string]
}

// Set raises the flag. Only the first caller's reason is kept.
func (f *ExitFlag) Set(reason string) {
	// reason is published before the flag so a reader that sees the flag
	// also sees a reason.
	f.reason.CompareAndSwap(nil, &reason)
	f.set.Store(true)
}

// IsSet reports whether exit has been requested.
func (f *ExitFlag) IsSet() bool {
	return f.set.Load()
}

// Reason returns the first reason passed to Set, or "" if unset.
func (f *ExitFlag) Reason() string {
	if r := f.reason.Load(); r != nil {
		return *r
	}
	return ""
}
