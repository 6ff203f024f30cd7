//go:build !windows

// Package service is a no-op outside Windows; the agent runs in the
// foreground and is supervised by systemd, launchd or similar.
package service

import (
	"context"

	"go.uber.org/zap"
)

// AgentService runs the reporting loop directly.
type AgentService struct {
	logger *zap.Logger
	run    func(ctx context.Context)
}

// New wraps run, which must block until its context is cancelled.
func New(logger *zap.Logger, run func(ctx context.Context)) *AgentService {
	return &AgentService{logger: logger, run: run}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run calls the wrapped loop with a background context.
func (s *AgentService) Run() error {
	s.run(context.Background())
	return nil
}
