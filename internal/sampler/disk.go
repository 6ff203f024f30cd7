// Disk usage per writable local partition.
package sampler

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
)

// pseudoFSTypes contains filesystem types that never count as local storage,
// even when mounted read-write.
var pseudoFSTypes = map[string]bool{
	// Virtual / system filesystems
	"devfs":         true,
	"autofs":        true,
	"tmpfs":         true,
	"sysfs":         true,
	"proc":          true,
	"devtmpfs":      true,
	"cgroup":        true,
	"cgroup2":       true,
	"overlay":       true,
	"squashfs":      true,
	"fuse.snapfuse": true,
	"nsfs":          true,
	"efivarfs":      true,
	"ramfs":         true,

	// Network / remote filesystems
	"nfs":        true,
	"nfs4":       true,
	"cifs":       true,
	"smbfs":      true,
	"fuse.sshfs": true,
	"9p":         true,
	"ceph":       true,
}

// systemMountPrefixes are OS-internal mount points hidden from reports.
var systemMountPrefixes = []string{
	"/System/Volumes/",
	"/private/var/vm",
}

// includePartition reports whether a partition is a read-write local
// filesystem worth sampling. Drive type (fixed vs removable or network) is
// checked separately by isLocalDrive.
func includePartition(p disk.PartitionStat) bool {
	if pseudoFSTypes[strings.ToLower(p.Fstype)] {
		return false
	}
	for _, prefix := range systemMountPrefixes {
		if strings.HasPrefix(p.Mountpoint, prefix) {
			return false
		}
	}
	for _, opt := range p.Opts {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "rw":
			return true
		}
	}
	return false
}

func listPartitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

// diskUsage returns utilization for every included partition. A partition
// whose usage cannot be read is left out and logged.
//
// The lister may return the partitions it could read together with an
// error naming the ones it could not; those are used as-is.
func (s *Sampler) diskUsage(ctx context.Context) models.DiskUsage {
	usage := models.DiskUsage{}

	partitions, err := s.partitions(ctx)
	if err != nil {
		if len(partitions) == 0 {
			s.logger.Warn("Listing partitions failed", zap.Error(err))
			return usage
		}
		s.logger.Warn("Some partitions could not be listed",
			zap.Int("listed", len(partitions)),
			zap.Error(err))
	}

	for _, p := range partitions {
		if !includePartition(p) || !s.localDrive(p.Mountpoint) {
			continue
		}
		u, err := s.usage(ctx, p.Mountpoint)
		if err != nil {
			s.logger.Debug("Skipping unreadable partition",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		// Some virtual mounts report 0 size
		if u.Total == 0 {
			continue
		}
		usage[p.Mountpoint] = u.UsedPercent
	}

	return usage
}
