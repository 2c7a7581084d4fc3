package power

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// System powers off the host through reboot(2). Requires CAP_SYS_BOOT.
type System struct{}

// PowerOff flushes filesystem buffers and powers off. It only returns on
// failure.
func (System) PowerOff() error {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("reboot(POWER_OFF): %w", err)
	}
	return nil
}
