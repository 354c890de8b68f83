package pipeline

import (
	"context"

	"evedash/pkg/models"
)

// SnapshotWriter delivers aggregation snapshots to a charting consumer.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	Close() error
}
