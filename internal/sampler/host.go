package sampler

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/host"
)

// Hostname returns the host name reported by the OS, used as the machine ID
// when none is configured.
func Hostname() (string, error) {
	info, err := host.InfoWithContext(context.Background())
	if err != nil || info.Hostname == "" {
		return os.Hostname()
	}
	return info.Hostname, nil
}
