//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		executableDirConfig(),
		filepath.Join(local, "PCStatus", "agent.yaml"),
		filepath.Join(programData, "PCStatus", "agent.yaml"),
	}
}
