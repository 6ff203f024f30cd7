//go:build windows

package sampler

import (
	"os"
	"testing"
)

func TestIsLocalDrive_Windows(t *testing.T) {
	system := os.Getenv("SystemDrive")
	if system == "" {
		system = "C:"
	}
	if !isLocalDrive(system) {
		t.Errorf("isLocalDrive(%q) = false, want true for the system drive", system)
	}
	if !isLocalDrive(system + `\`) {
		t.Errorf("isLocalDrive(%q) = false, want true with trailing separator", system+`\`)
	}
}

func TestIsLocalDrive_WindowsMissingDrive(t *testing.T) {
	for _, letter := range "ZYXWV" {
		mount := string(letter) + ":"
		if _, err := os.Stat(mount + `\`); err == nil {
			continue
		}
		if isLocalDrive(mount) {
			t.Errorf("isLocalDrive(%q) = true for a drive that does not exist", mount)
		}
		return
	}
	t.Skip("no unused drive letter to check")
}
