//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		executableDirConfig(),
		filepath.Join(home, ".pcstatus", "agent.yaml"),
		"/etc/pcstatus/agent.yaml",
	}
}
