//go:build windows

package sampler

import (
	"strings"

	"golang.org/x/sys/windows"
)

// isLocalDrive keeps fixed disks only. gopsutil marks every writable drive
// "rw", so removable, network, CD and RAM drives are told apart here.
func isLocalDrive(mount string) bool {
	root := strings.TrimRight(mount, `\`) + `\`
	ptr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return false
	}
	return windows.GetDriveType(ptr) == windows.DRIVE_FIXED
}
