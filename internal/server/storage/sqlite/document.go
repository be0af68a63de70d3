package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/internal/server/storage"
)

// CreateDocument creates a new document with an empty element list
func (s *Storage) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Name,
		doc.OwnerID,
		doc.CreatedAt.Unix(),
		doc.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetDocument retrieves a document with its ordered element list
func (s *Storage) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM documents
		WHERE id = ?
	`

	doc := &models.Document{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.Name,
		&doc.OwnerID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.CreatedAt = time.Unix(createdAt, 0).UTC()
	doc.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	elements, err := s.getElements(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Elements = elements

	return doc, nil
}

// ListDocumentsByOwner retrieves all documents owned by a user
// Списки элементов не загружаются - только метаданные документов
func (s *Storage) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM documents
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []*models.Document{}

	for rows.Next() {
		doc := &models.Document{}
		var createdAt, updatedAt int64

		if err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.OwnerID,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.CreatedAt = time.Unix(createdAt, 0).UTC()
		doc.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return docs, nil
}

// ApplyElements заменяет список элементов документа входящим снимком
// по правилу last-write-wins на уровне элемента. Сохраненный элемент
// со строго большей версией переживает замену (защита от перезаписи
// устаревшим снимком при гонке двух писателей); элементы, отсутствующие
// во входящем снимке, удаляются. Возвращает каноничный снимок.
func (s *Storage) ApplyElements(ctx context.Context, documentID string, incoming models.Snapshot) (models.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Документ должен существовать
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, documentID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to check document: %w", err)
	}

	// Загружаем текущие версии элементов
	rows, err := tx.QueryContext(ctx,
		`SELECT id, version, payload FROM elements WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}

	existing := make(map[string]models.Element)
	for rows.Next() {
		var el models.Element
		if err := rows.Scan(&el.ID, &el.Version, &el.Payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		existing[el.ID] = el
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	rows.Close()

	// Строим каноничный снимок: входящий порядок, но сохраненная копия
	// со строго большей версией выигрывает у устаревшей входящей
	result := make(models.Snapshot, 0, len(incoming))
	for i := range incoming {
		if ex, ok := existing[incoming[i].ID]; ok && ex.Version > incoming[i].Version {
			result = append(result, ex.Clone())
			continue
		}
		result = append(result, incoming[i].Clone())
	}

	// Переписываем список целиком: отсутствующие ID удалены
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM elements WHERE document_id = ?`, documentID); err != nil {
		return nil, fmt.Errorf("failed to clear elements: %w", err)
	}

	insert := `
		INSERT INTO elements (document_id, id, version, payload, position)
		VALUES (?, ?, ?, ?, ?)
	`
	for i := range result {
		if _, err := tx.ExecContext(ctx, insert,
			documentID,
			result[i].ID,
			result[i].Version,
			[]byte(result[i].Payload),
			i,
		); err != nil {
			return nil, fmt.Errorf("failed to insert element: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET updated_at = ? WHERE id = ?`,
		time.Now().Unix(), documentID); err != nil {
		return nil, fmt.Errorf("failed to touch document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return result, nil
}

// getElements загружает упорядоченный список элементов документа
func (s *Storage) getElements(ctx context.Context, documentID string) (models.Snapshot, error) {
	query := `
		SELECT id, version, payload
		FROM elements
		WHERE document_id = ?
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	elements := models.Snapshot{}

	for rows.Next() {
		var el models.Element
		if err := rows.Scan(&el.ID, &el.Version, &el.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		elements = append(elements, el)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return elements, nil
}
