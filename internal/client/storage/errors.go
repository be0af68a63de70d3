package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrSnapshotNotFound indicates that no cached snapshot exists for the document
	ErrSnapshotNotFound = errors.New("board snapshot not found")
)
