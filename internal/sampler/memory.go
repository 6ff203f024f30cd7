// RAM usage percentage.
package sampler

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// memoryPercent returns the instantaneous used-memory percentage.
func memoryPercent(ctx context.Context) (float64, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}
