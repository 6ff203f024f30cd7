package sender

import (
	"context"

	"github.com/Guliveer/pcstatus/internal/machines"
	"github.com/Guliveer/pcstatus/internal/models"
)

// DirectSender writes snapshots straight into the document store. There is
// no collector clock in this path, so last_seen comes from the agent host.
type DirectSender struct {
	svc *machines.Service
}

// NewDirect creates a DirectSender over a machines service.
func NewDirect(svc *machines.Service) *DirectSender {
	return &DirectSender{svc: svc}
}

// Publish merges the full snapshot into the machine's record.
func (s *DirectSender) Publish(ctx context.Context, machineID string, snap models.Snapshot) error {
	_, err := s.svc.Ingest(ctx, machineID, snap.Patch())
	return err
}
