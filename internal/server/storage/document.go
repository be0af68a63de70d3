package storage

import (
	"context"

	"github.com/iudanet/drawboard/internal/models"
)

// DocumentStorage defines interface for document persistence
type DocumentStorage interface {
	// CreateDocument creates a new document with an empty element list
	CreateDocument(ctx context.Context, doc *models.Document) error

	// GetDocument retrieves a document with its ordered element list
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)

	// ListDocumentsByOwner retrieves all documents owned by a user
	// Returns empty slice if no documents found
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)

	// ApplyElements заменяет список элементов документа входящим снимком
	// по правилу last-write-wins на уровне элемента: сохраненный элемент
	// со строго большей версией, чем во входящем снимке, переживает замену;
	// элементы, отсутствующие во входящем снимке, удаляются.
	// Возвращает каноничный снимок после применения - именно он рассылается
	// подписчикам. Returns ErrDocumentNotFound if document doesn't exist.
	ApplyElements(ctx context.Context, documentID string, incoming models.Snapshot) (models.Snapshot, error)
}
