package storage

import (
	"context"

	"github.com/iudanet/drawboard/internal/models"
)

//go:generate go tool moq -out board_mock.go . BoardStorage MetadataStorage

// BoardStorage defines interface for caching board snapshots on client.
// Снимок - полный список элементов документа на момент последней
// синхронизации; он служит базой трехстороннего merge при следующем цикле.
type BoardStorage interface {
	// SaveSnapshot stores or replaces the cached snapshot of a document
	SaveSnapshot(ctx context.Context, documentID string, snapshot models.Snapshot) error

	// GetSnapshot retrieves the cached snapshot of a document
	// Returns ErrSnapshotNotFound if document was never cached
	GetSnapshot(ctx context.Context, documentID string) (models.Snapshot, error)

	// DeleteSnapshot removes the cached snapshot of a document
	DeleteSnapshot(ctx context.Context, documentID string) error
}

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSync saves the timestamp of the last successful sync of a document
	SaveLastSync(ctx context.Context, documentID string, timestamp int64) error

	// GetLastSync retrieves the timestamp of the last successful sync
	// Returns 0 if the document has never been synced
	GetLastSync(ctx context.Context, documentID string) (int64, error)
}
