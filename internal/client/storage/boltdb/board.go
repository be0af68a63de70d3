package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/drawboard/internal/client/storage"
	"github.com/iudanet/drawboard/internal/models"
)

// SaveSnapshot stores or replaces the cached snapshot of a document
func (s *Storage) SaveSnapshot(_ context.Context, documentID string, snapshot models.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		data, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		if err := bucket.Put([]byte(documentID), data); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		return nil
	})
}

// GetSnapshot retrieves the cached snapshot of a document
func (s *Storage) GetSnapshot(_ context.Context, documentID string) (models.Snapshot, error) {
	var snapshot models.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		data := bucket.Get([]byte(documentID))
		if data == nil {
			return storage.ErrSnapshotNotFound
		}

		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// DeleteSnapshot removes the cached snapshot of a document
func (s *Storage) DeleteSnapshot(_ context.Context, documentID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		return bucket.Delete([]byte(documentID))
	})
}

// SaveLastSync saves the timestamp of the last successful sync of a document
func (s *Storage) SaveLastSync(_ context.Context, documentID string, timestamp int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := bucket.Put(lastSyncKey(documentID), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync timestamp: %w", err)
		}

		return nil
	})
}

// GetLastSync retrieves the timestamp of the last successful sync
// Returns 0 if the document has never been synced
func (s *Storage) GetLastSync(_ context.Context, documentID string) (int64, error) {
	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := bucket.Get(lastSyncKey(documentID))
		if timestampBytes == nil {
			timestamp = 0
			return nil
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}

	return timestamp, nil
}

func lastSyncKey(documentID string) []byte {
	return []byte("last_sync:" + documentID)
}
