// Package sender publishes snapshots from the agent. The HTTP sender pushes
// to the collector with the agent token; the direct sender writes into the
// document store without a collector in between.
package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/Guliveer/pcstatus/internal/models"
)

// ErrUnauthorized means the collector rejected the agent token.
var ErrUnauthorized = errors.New("collector rejected agent token")

// Publisher delivers one snapshot for a machine. Delivery is at most once:
// implementations do not retry.
type Publisher interface {
	Publish(ctx context.Context, machineID string, snap models.Snapshot) error
}

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("collector returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("collector returned %d", e.StatusCode)
}
