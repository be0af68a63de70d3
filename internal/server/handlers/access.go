package handlers

import (
	"context"
	"errors"

	"github.com/iudanet/drawboard/internal/server/storage"
)

// OwnerAccessChecker реализует оракул авторизации hub.AccessChecker:
// доступ к документу имеет только его владелец. Несуществующий документ
// считается отказом в доступе, а не ошибкой.
type OwnerAccessChecker struct {
	docs storage.DocumentStorage
}

// NewOwnerAccessChecker создает проверку доступа по владельцу
func NewOwnerAccessChecker(docs storage.DocumentStorage) *OwnerAccessChecker {
	return &OwnerAccessChecker{docs: docs}
}

// CanAccess возвращает true, если userID - владелец документа
func (c *OwnerAccessChecker) CanAccess(ctx context.Context, userID, documentID string) (bool, error) {
	doc, err := c.docs.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return false, nil
		}
		return false, err
	}

	return doc.OwnerID == userID, nil
}
