package api

import "time"

// CreateDocumentRequest представляет запрос на создание документа
type CreateDocumentRequest struct {
	Name string `json:"name"` // отображаемое имя документа
}

// DocumentResponse представляет документ в ответах API
type DocumentResponse struct {
	ID        string    `json:"id"`       // UUID документа
	Name      string    `json:"name"`     // имя документа
	OwnerID   string    `json:"owner_id"` // владелец
	Elements  []Element `json:"elements"` // текущий список элементов
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentListResponse представляет список документов пользователя
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}
