// Package models defines the snapshot and machine record structures shared by
// the agent and the collector. These structures are serialized to JSON on the
// wire and in the document store.
package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Mode selects how target names are interpreted by the detector.
type Mode string

const (
	// ModePC treats targets as process names or command-line substrings.
	ModePC Mode = "PC"
	// ModeServer treats targets as container names or IDs.
	ModeServer Mode = "SERVER"
)

// ParseMode normalizes a configured monitor type. The empty string maps to PC.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ModePC:
		return ModePC, true
	case ModeServer:
		return ModeServer, true
	default:
		return Mode(s), false
	}
}

// DiskUsage maps a mount point to its utilization percentage (0-100).
type DiskUsage map[string]float64

// TargetStatus maps a target name to whether it is running.
type TargetStatus map[string]bool

// Names returns the target names in sorted order.
func (t TargetStatus) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SystemSample is the host resource part of a snapshot.
type SystemSample struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskUsage     DiskUsage
}

// Snapshot is one point-in-time report pushed by an agent.
// ObservedAt is advisory: the collector replaces it on ingestion.
type Snapshot struct {
	CPUPercent    float64      `json:"cpu_percent"`
	MemoryPercent float64      `json:"memory_percent"`
	DiskUsage     DiskUsage    `json:"disk_partitions"`
	TargetStatus  TargetStatus `json:"targets_status"`
	ObservedAt    time.Time    `json:"last_seen"`
}

// Patch converts a full snapshot into a patch with every field present.
func (s Snapshot) Patch() SnapshotPatch {
	cpu, mem := s.CPUPercent, s.MemoryPercent
	disks := s.DiskUsage
	if disks == nil {
		disks = DiskUsage{}
	}
	targets := s.TargetStatus
	if targets == nil {
		targets = TargetStatus{}
	}
	return SnapshotPatch{
		CPUPercent:    &cpu,
		MemoryPercent: &mem,
		DiskUsage:     disks,
		TargetStatus:  targets,
	}
}

// SnapshotPatch is an ingest payload. Nil fields are absent and leave the
// stored value untouched. LastSeen is accepted on the wire but never stored.
type SnapshotPatch struct {
	CPUPercent    *float64        `json:"cpu_percent,omitempty"`
	MemoryPercent *float64        `json:"memory_percent,omitempty"`
	DiskUsage     DiskUsage       `json:"disk_partitions,omitempty"`
	TargetStatus  TargetStatus    `json:"targets_status,omitempty"`
	LastSeen      json.RawMessage `json:"last_seen,omitempty"`
}

// Empty reports whether the patch carries no snapshot field.
func (p SnapshotPatch) Empty() bool {
	return p.CPUPercent == nil && p.MemoryPercent == nil &&
		p.DiskUsage == nil && p.TargetStatus == nil
}

// MachineRecord is the persisted, merged state of one machine.
type MachineRecord struct {
	ID            string       `json:"id"`
	CPUPercent    *float64     `json:"cpu_percent,omitempty"`
	MemoryPercent *float64     `json:"memory_percent,omitempty"`
	DiskUsage     DiskUsage    `json:"disk_partitions"`
	TargetStatus  TargetStatus `json:"targets_status"`
	LastSeen      *time.Time   `json:"last_seen,omitempty"`
}

// Field names used in stored machine documents.
const (
	FieldCPUPercent    = "cpu_percent"
	FieldMemoryPercent = "memory_percent"
	FieldDiskUsage     = "disk_partitions"
	FieldTargetStatus  = "targets_status"
	FieldLastSeen      = "last_seen"
)
