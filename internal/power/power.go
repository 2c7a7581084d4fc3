// Package power requests an operating system power-off.
package power

import log "github.com/sirupsen/logrus"

// Shutdowner requests a system power-off. The request is best-effort.
type Shutdowner interface {
	PowerOff() error
}

// DryRun logs the request instead of powering off.
type DryRun struct{}

// PowerOff logs and returns nil.
func (DryRun) PowerOff() error {
	log.Warn("dry-run: system power-off skipped")
	return nil
}
