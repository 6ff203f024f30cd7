// Package sampler reads host resource usage: CPU over a fixed observation
// window, instantaneous memory, and per-partition disk utilization.
// Uses gopsutil for cross-platform metrics.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
)

// DefaultCPUWindow is the CPU observation window. Sample blocks for this long.
const DefaultCPUWindow = time.Second

// Sampler gathers a SystemSample from the local host.
type Sampler struct {
	cpuWindow time.Duration
	logger    *zap.Logger

	partitions func(ctx context.Context) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, mount string) (*disk.UsageStat, error)
	localDrive func(mount string) bool
}

// New creates a Sampler with the default 1 second CPU window.
func New(logger *zap.Logger) *Sampler {
	return &Sampler{
		cpuWindow:  DefaultCPUWindow,
		logger:     logger.Named("sampler"),
		partitions: listPartitions,
		usage:      disk.UsageWithContext,
		localDrive: isLocalDrive,
	}
}

// Probe checks that the host metrics API is reachable. The agent treats a
// failure here as fatal at startup.
func (s *Sampler) Probe(ctx context.Context) error {
	if _, err := memoryPercent(ctx); err != nil {
		return fmt.Errorf("reading memory: %w", err)
	}
	// A partial listing is usable; only an empty one is fatal.
	parts, err := s.partitions(ctx)
	if err != nil && len(parts) == 0 {
		return fmt.Errorf("listing partitions: %w", err)
	}
	return nil
}

// Sample reads CPU, memory and disk usage. Per-partition failures are
// dropped from the result; CPU or memory failures fail the sample.
func (s *Sampler) Sample(ctx context.Context) (models.SystemSample, error) {
	cpuPct, err := cpuPercent(ctx, s.cpuWindow)
	if err != nil {
		return models.SystemSample{}, fmt.Errorf("reading cpu: %w", err)
	}

	memPct, err := memoryPercent(ctx)
	if err != nil {
		return models.SystemSample{}, fmt.Errorf("reading memory: %w", err)
	}

	return models.SystemSample{
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		DiskUsage:     s.diskUsage(ctx),
	}, nil
}
