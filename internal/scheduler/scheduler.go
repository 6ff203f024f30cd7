// Package scheduler implements the agent's reporting loop. Each cycle samples
// the host, detects target status, publishes one snapshot and then sleeps
// for the configured interval. Cycles never overlap and failures never stop
// the loop: a missed push shows up as a stale last_seen on the collector.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
	"github.com/Guliveer/pcstatus/internal/sender"
)

// Sampler reads host resource usage.
type Sampler interface {
	Sample(ctx context.Context) (models.SystemSample, error)
}

// Detector reports target status. It does not fail.
type Detector interface {
	Detect(ctx context.Context, mode models.Mode, targets []string) models.TargetStatus
}

// Options configures a Scheduler.
type Options struct {
	MachineID string
	Interval  time.Duration
	Mode      models.Mode
	Targets   []string
}

// Scheduler runs the sample-and-push loop for one machine.
type Scheduler struct {
	opts      Options
	sampler   Sampler
	detector  Detector
	publisher sender.Publisher
	logger    *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Scheduler. The machine ID in opts is resolved once by the
// caller and used for every cycle.
func New(opts Options, s Sampler, d Detector, p sender.Publisher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		opts:      opts,
		sampler:   s,
		detector:  d,
		publisher: p,
		logger:    logger.Named("scheduler"),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Start runs cycles until the context is cancelled. The first cycle starts
// immediately; each later one starts interval after the previous finished.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Reporting loop started",
		zap.String("machine_id", s.opts.MachineID),
		zap.String("mode", string(s.opts.Mode)),
		zap.Strings("targets", s.opts.Targets),
		zap.Duration("interval", s.opts.Interval))

	for {
		// Errors are logged inside RunOnce; the loop only stops on shutdown.
		_ = s.RunOnce(ctx)

		s.sleep(ctx, s.opts.Interval)
		if ctx.Err() != nil {
			s.logger.Info("Reporting loop stopped")
			return
		}
	}
}

// RunOnce performs a single sample, detect and publish cycle. The returned
// error has already been logged.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	sample, err := s.sampler.Sample(ctx)
	if err != nil {
		s.logger.Error("Sampling failed, skipping push", zap.Error(err))
		return err
	}

	status := s.detector.Detect(ctx, s.opts.Mode, s.opts.Targets)
	if status == nil {
		status = models.TargetStatus{}
	}

	snap := models.Snapshot{
		CPUPercent:    sample.CPUPercent,
		MemoryPercent: sample.MemoryPercent,
		DiskUsage:     sample.DiskUsage,
		TargetStatus:  status,
		ObservedAt:    s.now().UTC(),
	}

	err = s.publisher.Publish(ctx, s.opts.MachineID, snap)
	s.logOutcome(snap, err)
	return err
}

func (s *Scheduler) logOutcome(snap models.Snapshot, err error) {
	var statusErr *sender.StatusError
	switch {
	case err == nil:
		s.logger.Info("Snapshot sent",
			zap.String("machine_id", s.opts.MachineID),
			zap.Strings("targets", snap.TargetStatus.Names()))
	case errors.Is(err, sender.ErrUnauthorized):
		s.logger.Error("Authentication failed, check the agent token",
			zap.String("machine_id", s.opts.MachineID),
			zap.String("reason", "auth"),
			zap.Error(err))
	case errors.As(err, &statusErr):
		s.logger.Error("Collector rejected snapshot",
			zap.String("machine_id", s.opts.MachineID),
			zap.String("reason", "status"),
			zap.Int("status", statusErr.StatusCode),
			zap.Error(err))
	case errors.Is(err, context.Canceled):
		s.logger.Info("Push interrupted by shutdown")
	default:
		s.logger.Error("Push failed",
			zap.String("machine_id", s.opts.MachineID),
			zap.String("reason", "transport"),
			zap.Error(err))
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
