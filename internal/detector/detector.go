// Package detector decides whether each configured target is running.
// In PC mode targets are matched against live processes; in SERVER mode
// they are looked up in the container runtime.
package detector

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
)

// ExecutableSuffix marks a target that must match a process name exactly.
const ExecutableSuffix = ".exe"

// Detector evaluates target status for one agent.
type Detector struct {
	procs   ProcessLister
	runtime ContainerRuntime
	logger  *zap.Logger
}

// New creates a Detector. runtime may be nil when no container runtime
// could be reached; SERVER mode then reports an empty status map.
func New(procs ProcessLister, runtime ContainerRuntime, logger *zap.Logger) *Detector {
	return &Detector{
		procs:   procs,
		runtime: runtime,
		logger:  logger.Named("detector"),
	}
}

// Detect returns running/not-running for each target. It never fails:
// lookup problems are logged and reported as false or as an empty map.
func (d *Detector) Detect(ctx context.Context, mode models.Mode, targets []string) models.TargetStatus {
	targets = NormalizeTargets(targets)
	if len(targets) == 0 {
		return models.TargetStatus{}
	}

	switch mode {
	case models.ModePC:
		return d.detectProcesses(ctx, targets)
	case models.ModeServer:
		return d.detectContainers(ctx, targets)
	default:
		d.logger.Warn("Unknown monitor mode, reporting no targets", zap.String("mode", string(mode)))
		return models.TargetStatus{}
	}
}

// NormalizeTargets trims names, drops empties and duplicates, keeping order.
func NormalizeTargets(targets []string) []string {
	seen := make(map[string]bool, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ParseTargetList splits a comma-separated target list.
func ParseTargetList(s string) []string {
	return NormalizeTargets(strings.Split(s, ","))
}

func (d *Detector) detectProcesses(ctx context.Context, targets []string) models.TargetStatus {
	result := make(models.TargetStatus, len(targets))

	procs, err := d.procs.Processes(ctx)
	if err != nil {
		// Without a process list every target reads as not running.
		d.logger.Error("Listing processes failed", zap.Error(err))
	}

	for _, target := range targets {
		result[target] = MatchProcess(target, procs)
	}
	return result
}

// MatchProcess applies the PC-mode rule for one target: a target ending in
// ExecutableSuffix must equal some process name exactly (case-insensitive);
// any other target must be a substring of some process command line.
func MatchProcess(target string, procs []ProcessEntry) bool {
	t := strings.ToLower(target)
	exact := strings.HasSuffix(t, ExecutableSuffix)

	for _, p := range procs {
		if exact {
			if p.Name == t {
				return true
			}
			continue
		}
		if strings.Contains(p.Cmdline, t) {
			return true
		}
	}
	return false
}

func (d *Detector) detectContainers(ctx context.Context, targets []string) models.TargetStatus {
	if d.runtime == nil {
		d.logger.Warn("Container runtime not configured, reporting no targets")
		return models.TargetStatus{}
	}
	if err := d.runtime.Ping(ctx); err != nil {
		d.logger.Warn("Container runtime unavailable, reporting no targets", zap.Error(err))
		return models.TargetStatus{}
	}

	result := make(models.TargetStatus, len(targets))
	for _, target := range targets {
		state, err := d.runtime.State(ctx, target)
		if err != nil {
			d.logger.Warn("Container lookup failed",
				zap.String("target", target),
				zap.Error(err))
			result[target] = false
			continue
		}
		result[target] = state == StateRunning
	}
	return result
}
