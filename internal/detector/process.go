package detector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ProcessEntry is one live process, lowercased for matching.
type ProcessEntry struct {
	Name    string
	Cmdline string
}

// ProcessLister enumerates live processes.
type ProcessLister interface {
	Processes(ctx context.Context) ([]ProcessEntry, error)
}

// HostProcesses lists processes through gopsutil.
type HostProcesses struct {
	logger *zap.Logger
}

// NewHostProcesses creates a ProcessLister backed by the local host.
func NewHostProcesses(logger *zap.Logger) *HostProcesses {
	return &HostProcesses{logger: logger.Named("processes")}
}

// Processes returns every process whose name can be read. Processes that
// exit or deny access mid-scan are skipped; an unreadable command line is
// recorded as empty.
func (h *HostProcesses) Processes(ctx context.Context) ([]ProcessEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ProcessEntry, 0, len(procs))
	skipped := 0
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			skipped++
			h.logger.Debug("Skipping process",
				zap.Int32("pid", p.Pid),
				zap.Error(err))
			continue
		}

		var cmdline string
		if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
			cmdline = strings.Join(args, " ")
		}

		entries = append(entries, ProcessEntry{
			Name:    strings.ToLower(name),
			Cmdline: strings.ToLower(cmdline),
		})
	}

	if skipped > 0 {
		h.logger.Debug("Process scan finished",
			zap.Int("listed", len(entries)),
			zap.Int("skipped", skipped))
	}
	return entries, nil
}
