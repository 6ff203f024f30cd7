// CPU usage over an observation window.
package sampler

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// cpuPercent returns overall CPU utilization measured over window.
// It blocks for the whole window.
func cpuPercent(ctx context.Context, window time.Duration) (float64, error) {
	overall, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, err
	}
	if len(overall) == 0 {
		return 0, nil
	}
	return overall[0], nil
}
