package sampler

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"
)

func TestIncludePartition(t *testing.T) {
	tests := []struct {
		name string
		p    disk.PartitionStat
		want bool
	}{
		{"rw ext4", disk.PartitionStat{Mountpoint: "/", Fstype: "ext4", Opts: []string{"rw", "relatime"}}, true},
		{"windows ntfs", disk.PartitionStat{Mountpoint: "C:", Fstype: "NTFS", Opts: []string{"rw", "compress"}}, true},
		{"option named fixed only", disk.PartitionStat{Mountpoint: "E:", Fstype: "FAT32", Opts: []string{"fixed"}}, false},
		{"uppercase rw", disk.PartitionStat{Mountpoint: "D:", Fstype: "NTFS", Opts: []string{"RW", "compress"}}, true},
		{"read-only", disk.PartitionStat{Mountpoint: "/media/cd", Fstype: "iso9660", Opts: []string{"ro"}}, false},
		{"no opts", disk.PartitionStat{Mountpoint: "/mnt/x", Fstype: "ext4"}, false},
		{"tmpfs rw", disk.PartitionStat{Mountpoint: "/run", Fstype: "tmpfs", Opts: []string{"rw"}}, false},
		{"nfs rw", disk.PartitionStat{Mountpoint: "/srv/share", Fstype: "nfs4", Opts: []string{"rw"}}, false},
		{"macOS system volume", disk.PartitionStat{Mountpoint: "/System/Volumes/VM", Fstype: "apfs", Opts: []string{"rw"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := includePartition(tt.p); got != tt.want {
				t.Errorf("includePartition(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestSample_ValuesInRange(t *testing.T) {
	if testing.Short() {
		t.Skip("blocks for the CPU window")
	}
	s := New(zap.NewNop())

	got, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if got.CPUPercent < 0 || got.CPUPercent > 100 {
		t.Errorf("CPUPercent = %v, want 0..100", got.CPUPercent)
	}
	if got.MemoryPercent <= 0 || got.MemoryPercent > 100 {
		t.Errorf("MemoryPercent = %v, want 0..100", got.MemoryPercent)
	}
	if got.DiskUsage == nil {
		t.Error("DiskUsage should be non-nil even when empty")
	}
	for mount, pct := range got.DiskUsage {
		if pct < 0 || pct > 100 {
			t.Errorf("DiskUsage[%q] = %v, want 0..100", mount, pct)
		}
	}
}

func TestHostname(t *testing.T) {
	name, err := Hostname()
	if err != nil {
		t.Fatalf("Hostname() error = %v", err)
	}
	if name == "" {
		t.Error("Hostname() returned empty name")
	}
}

type fakeDisks struct {
	parts   []disk.PartitionStat
	listErr error
	usage   map[string]float64
	remote  map[string]bool
}

func (f fakeDisks) install(s *Sampler) {
	s.partitions = func(context.Context) ([]disk.PartitionStat, error) {
		return f.parts, f.listErr
	}
	s.usage = func(_ context.Context, mount string) (*disk.UsageStat, error) {
		pct, ok := f.usage[mount]
		if !ok {
			return nil, errors.New("device not ready")
		}
		return &disk.UsageStat{Path: mount, Total: 100, UsedPercent: pct}, nil
	}
	s.localDrive = func(mount string) bool { return !f.remote[mount] }
}

func rw(mount, fstype string) disk.PartitionStat {
	return disk.PartitionStat{Mountpoint: mount, Fstype: fstype, Opts: []string{"rw"}}
}

func TestDiskUsage_PartialListingKeepsReadablePartitions(t *testing.T) {
	s := New(zap.NewNop())
	fakeDisks{
		parts:   []disk.PartitionStat{rw("C:", "NTFS"), rw("D:", "NTFS")},
		listErr: errors.New("Z: the network path was not found"),
		usage:   map[string]float64{"C:": 41, "D:": 12},
	}.install(s)

	got := s.diskUsage(context.Background())
	want := map[string]float64{"C:": 41, "D:": 12}
	if !reflect.DeepEqual(map[string]float64(got), want) {
		t.Errorf("diskUsage() = %v, want %v", got, want)
	}
}

func TestDiskUsage_ListingFailure(t *testing.T) {
	s := New(zap.NewNop())
	fakeDisks{listErr: errors.New("no partitions")}.install(s)

	got := s.diskUsage(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("diskUsage() = %v, want empty non-nil map", got)
	}
}

func TestDiskUsage_SkipsNonLocalAndUnreadableDrives(t *testing.T) {
	s := New(zap.NewNop())
	fakeDisks{
		parts: []disk.PartitionStat{
			rw("C:", "NTFS"),
			rw("E:", "FAT32"), // USB stick
			rw("F:", "NTFS"),  // mapped share
			rw("G:", "NTFS"),  // unreadable
		},
		usage:  map[string]float64{"C:": 50, "E:": 10, "F:": 90},
		remote: map[string]bool{"E:": true, "F:": true},
	}.install(s)

	got := s.diskUsage(context.Background())
	want := map[string]float64{"C:": 50}
	if !reflect.DeepEqual(map[string]float64(got), want) {
		t.Errorf("diskUsage() = %v, want %v", got, want)
	}
}

func TestProbe_PartialPartitionListing(t *testing.T) {
	if testing.Short() {
		t.Skip("reads host memory")
	}
	s := New(zap.NewNop())
	fakeDisks{
		parts:   []disk.PartitionStat{rw("/", "ext4")},
		listErr: errors.New("one drive failed"),
	}.install(s)
	if err := s.Probe(context.Background()); err != nil {
		t.Errorf("Probe() error = %v, want nil when some partitions were listed", err)
	}

	fakeDisks{listErr: errors.New("nothing listed")}.install(s)
	if err := s.Probe(context.Background()); err == nil {
		t.Error("Probe() should fail when no partition could be listed")
	}
}
