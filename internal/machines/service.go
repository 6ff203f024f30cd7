// Package machines implements ingestion and query of machine records on top
// of the document store. It knows nothing about HTTP or credentials; callers
// authenticate before reaching it.
package machines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
	"github.com/Guliveer/pcstatus/internal/store"
)

var (
	// ErrInvalidID is returned for an empty or whitespace-only machine ID.
	ErrInvalidID = errors.New("machine id is required")

	// ErrEmptyPayload is returned when a patch carries no snapshot field.
	ErrEmptyPayload = errors.New("payload contains no snapshot fields")

	// ErrNotFound is returned by Get for an unknown machine.
	ErrNotFound = errors.New("machine not found")
)

// Service merges snapshots into machine records and reads them back.
type Service struct {
	store  store.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a Service. A nil now defaults to time.Now.
func NewService(st store.Store, now func() time.Time, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  st,
		now:    now,
		logger: logger.Named("machines"),
	}
}

// Ingest merges the present fields of p into the record for id and stamps
// last_seen with the service clock. Any last_seen carried by p is ignored.
// It returns the stamp that was written.
func (s *Service) Ingest(ctx context.Context, id string, p models.SnapshotPatch) (time.Time, error) {
	if strings.TrimSpace(id) == "" {
		return time.Time{}, ErrInvalidID
	}
	if p.Empty() {
		return time.Time{}, ErrEmptyPayload
	}

	observedAt := s.now().UTC()
	doc, err := patchDocument(p, observedAt)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.store.Merge(ctx, id, doc); err != nil {
		return time.Time{}, fmt.Errorf("merging record %s: %w", id, err)
	}

	s.logger.Debug("Merged snapshot",
		zap.String("id", id),
		zap.Int("fields", len(doc)),
		zap.Time("last_seen", observedAt))
	return observedAt, nil
}

// List returns all machine records in ID order.
func (s *Service) List(ctx context.Context) ([]models.MachineRecord, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	records := make([]models.MachineRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := decodeRecord(e.ID, e.Doc)
		if err != nil {
			s.logger.Warn("Skipping undecodable record",
				zap.String("id", e.ID),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Get returns the record for id.
func (s *Service) Get(ctx context.Context, id string) (models.MachineRecord, error) {
	doc, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.MachineRecord{}, ErrNotFound
	}
	if err != nil {
		return models.MachineRecord{}, fmt.Errorf("reading record %s: %w", id, err)
	}
	return decodeRecord(id, doc)
}

// Delete removes the record for id. Deleting an unknown machine succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	s.logger.Info("Deleted machine record", zap.String("id", id))
	return nil
}

// patchDocument encodes the present fields of p plus last_seen.
func patchDocument(p models.SnapshotPatch, observedAt time.Time) (store.Document, error) {
	doc := store.Document{}
	put := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		doc[key] = raw
		return nil
	}

	if p.CPUPercent != nil {
		if err := put(models.FieldCPUPercent, *p.CPUPercent); err != nil {
			return nil, err
		}
	}
	if p.MemoryPercent != nil {
		if err := put(models.FieldMemoryPercent, *p.MemoryPercent); err != nil {
			return nil, err
		}
	}
	if p.DiskUsage != nil {
		if err := put(models.FieldDiskUsage, p.DiskUsage); err != nil {
			return nil, err
		}
	}
	if p.TargetStatus != nil {
		if err := put(models.FieldTargetStatus, p.TargetStatus); err != nil {
			return nil, err
		}
	}
	if err := put(models.FieldLastSeen, observedAt); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeRecord rebuilds a MachineRecord from a stored document.
func decodeRecord(id string, doc store.Document) (models.MachineRecord, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.MachineRecord{}, err
	}
	var rec models.MachineRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.MachineRecord{}, err
	}
	rec.ID = id
	return rec, nil
}
