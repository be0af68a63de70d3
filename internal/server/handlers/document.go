package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/internal/server/storage"
	"github.com/iudanet/drawboard/internal/validation"
	"github.com/iudanet/drawboard/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id в контексте
	UserIDKey contextKey = "user_id"
	// UsernameKey ключ для хранения username в контексте
	UsernameKey contextKey = "username"
)

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUsername извлекает username из контекста запроса
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// Broadcaster рассылает новое состояние документа подписчикам.
// Вызывается строго после успешной персистенции мутации.
type Broadcaster interface {
	DocumentMutated(documentID string, elements []api.Element, originToken string)
}

// DocumentHandler обрабатывает CRUD документов и прием мутаций
type DocumentHandler struct {
	logger      *slog.Logger
	storage     storage.DocumentStorage
	broadcaster Broadcaster
}

// NewDocumentHandler создает новый handler для документов
func NewDocumentHandler(logger *slog.Logger, docStorage storage.DocumentStorage, broadcaster Broadcaster) *DocumentHandler {
	return &DocumentHandler{
		logger:      logger,
		storage:     docStorage,
		broadcaster: broadcaster,
	}
}

// HandleCreate обрабатывает POST /api/v1/documents
// Создание нового документа с пустым списком элементов
func (h *DocumentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode create request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateDocumentName(req.Name); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	doc := &models.Document{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.CreateDocument(ctx, doc); err != nil {
		h.logger.ErrorContext(ctx, "failed to create document", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "document created",
		slog.String("document_id", doc.ID),
		slog.String("owner_id", userID))

	h.sendJSON(w, documentResponse(doc), http.StatusCreated)
}

// HandleList обрабатывает GET /api/v1/documents
// Список документов текущего пользователя (без элементов)
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.storage.ListDocumentsByOwner(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.DocumentListResponse{
		Documents: make([]api.DocumentResponse, 0, len(docs)),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, documentResponse(doc))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// HandleGet обрабатывает GET /api/v1/documents/{id}
// Возвращает документ с текущим списком элементов
func (h *DocumentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc, ok := h.loadOwnedDocument(w, r, userID)
	if !ok {
		return
	}

	h.sendJSON(w, documentResponse(doc), http.StatusOK)
}

// HandleSubmitUpdate обрабатывает POST /api/v1/documents/{id}/elements
// Прием мутации: снимок элементов персистится (per-element LWW),
// затем каноничное состояние рассылается остальным подписчикам.
// Origin запроса исключает подписчика-источника из рассылки.
func (h *DocumentHandler) HandleSubmitUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc, ok := h.loadOwnedDocument(w, r, userID)
	if !ok {
		return
	}

	var req api.SubmitUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode update request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	incoming := models.SnapshotFromAPI(req.Elements)

	result, err := h.storage.ApplyElements(ctx, doc.ID, incoming)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply elements",
			slog.String("document_id", doc.ID),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Рассылка только после успешной персистенции: подписчики не должны
	// видеть состояние, которое могло быть отклонено
	elements := result.ToAPI()
	h.broadcaster.DocumentMutated(doc.ID, elements, req.Origin)

	h.logger.DebugContext(ctx, "document mutated",
		slog.String("document_id", doc.ID),
		slog.Int("elements", len(elements)),
		slog.String("origin", req.Origin))

	resp := api.SubmitUpdateResponse{
		Elements:  elements,
		UpdatedAt: time.Now().Unix(),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// loadOwnedDocument загружает документ из path-параметра и проверяет,
// что текущий пользователь - владелец. Пишет ответ об ошибке сама.
func (h *DocumentHandler) loadOwnedDocument(w http.ResponseWriter, r *http.Request, userID string) (*models.Document, bool) {
	ctx := r.Context()
	documentID := mux.Vars(r)["id"]

	doc, err := h.storage.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			h.sendError(w, "document not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get document",
			slog.String("document_id", documentID),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	if doc.OwnerID != userID {
		h.logger.WarnContext(ctx, "document access denied",
			slog.String("document_id", documentID),
			slog.String("user_id", userID))
		h.sendError(w, "access denied", http.StatusForbidden)
		return nil, false
	}

	return doc, true
}

// documentResponse конвертирует документ в API формат
func documentResponse(doc *models.Document) api.DocumentResponse {
	return api.DocumentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		OwnerID:   doc.OwnerID,
		Elements:  doc.Elements.ToAPI(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// sendJSON отправляет JSON ответ
func (h *DocumentHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *DocumentHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
