package machines

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
	"github.com/Guliveer/pcstatus/internal/store"
)

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	st, err := store.OpenBolt(filepath.Join(t.TempDir(), "machines.db"), "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, func() time.Time { return now }, zap.NewNop())
}

func ptr(f float64) *float64 { return &f }

func TestIngest_StampsServerTime(t *testing.T) {
	receipt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, receipt)
	ctx := context.Background()

	for _, forged := range []string{`"2099-01-01T00:00:00Z"`, `"1970-01-01T00:00:00Z"`, `12345`} {
		_, err := svc.Ingest(ctx, "host1", models.SnapshotPatch{
			CPUPercent: ptr(1),
			LastSeen:   json.RawMessage(forged),
		})
		require.NoError(t, err)

		rec, err := svc.Get(ctx, "host1")
		require.NoError(t, err)
		require.NotNil(t, rec.LastSeen)
		assert.True(t, rec.LastSeen.Equal(receipt), "forged %s leaked into last_seen", forged)
	}
}

func TestIngest_MergesAcrossPartialPushes(t *testing.T) {
	svc := newTestService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "host1", models.SnapshotPatch{CPUPercent: ptr(10)})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "host1", models.SnapshotPatch{MemoryPercent: ptr(20)})
	require.NoError(t, err)

	rec, err := svc.Get(ctx, "host1")
	require.NoError(t, err)
	require.NotNil(t, rec.CPUPercent)
	require.NotNil(t, rec.MemoryPercent)
	assert.Equal(t, 10.0, *rec.CPUPercent)
	assert.Equal(t, 20.0, *rec.MemoryPercent)
}

func TestIngest_RejectsEmptyPatchAndID(t *testing.T) {
	svc := newTestService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "host1", models.SnapshotPatch{LastSeen: json.RawMessage(`"x"`)})
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = svc.Ingest(ctx, "  ", models.SnapshotPatch{CPUPercent: ptr(1)})
	assert.ErrorIs(t, err, ErrInvalidID)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIngest_EmptyTargetMapIsStored(t *testing.T) {
	svc := newTestService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "srv", models.SnapshotPatch{TargetStatus: models.TargetStatus{"web": true}})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "srv", models.SnapshotPatch{TargetStatus: models.TargetStatus{}})
	require.NoError(t, err)

	rec, err := svc.Get(ctx, "srv")
	require.NoError(t, err)
	assert.Empty(t, rec.TargetStatus)
}

func TestListGetDelete(t *testing.T) {
	svc := newTestService(t, time.Now())
	ctx := context.Background()

	for _, id := range []string{"pc-2", "pc-1"} {
		_, err := svc.Ingest(ctx, id, models.Snapshot{
			CPUPercent:   5,
			DiskUsage:    models.DiskUsage{"/": 50},
			TargetStatus: models.TargetStatus{"svc": false},
		}.Patch())
		require.NoError(t, err)
	}

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pc-1", records[0].ID)
	assert.Equal(t, models.DiskUsage{"/": 50}, records[0].DiskUsage)

	require.NoError(t, svc.Delete(ctx, "pc-1"))
	_, err = svc.Get(ctx, "pc-1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "pc-1"))
}
