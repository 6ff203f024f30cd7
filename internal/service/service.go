//go:build windows

// Package service runs the agent under the Windows Service Control Manager.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

// Name is the name the agent is registered under with the SCM.
const Name = "PCStatusAgent"

// stopGrace bounds how long a stop request waits for the running cycle.
const stopGrace = 15 * time.Second

// AgentService adapts the reporting loop to svc.Handler.
type AgentService struct {
	logger *zap.Logger
	run    func(ctx context.Context)
}

// New wraps run, which must block until its context is cancelled.
func New(logger *zap.Logger, run func(ctx context.Context)) *AgentService {
	return &AgentService{
		logger: logger.Named("service"),
		run:    run,
	}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop and blocks until the service stops.
func (s *AgentService) Run() error {
	return svc.Run(Name, s)
}

// Execute implements svc.Handler.
func (s *AgentService) Execute(_ []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.run(ctx)
		close(done)
	}()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started", zap.String("name", Name))

	for {
		select {
		case <-done:
			s.logger.Warn("Reporting loop exited on its own")
			return false, 1
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case <-done:
				case <-time.After(stopGrace):
					s.logger.Warn("Reporting loop did not stop in time", zap.Duration("grace", stopGrace))
				}
				return false, 0
			default:
				s.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}
