package api

import "encoding/json"

// Element представляет один элемент канваса в wire-формате.
// Payload непрозрачен для протокола: форма, координаты, стиль и прочие
// атрибуты элемента сериализуются фронтендом и передаются как есть.
type Element struct {
	ID      string          `json:"id"`      // уникальный в пределах документа ID элемента
	Version int64           `json:"version"` // монотонно растущая версия элемента
	Payload json.RawMessage `json:"payload"` // данные элемента (форма/позиция/стиль)
}

// UpdateRecord представляет одно сообщение в потоке подписки на документ.
// Origin содержит токен подписчика, чья мутация породила запись; пустое
// значение означает доставку, инициированную сервером (initial snapshot).
// Subscriber заполняется только в первой записи потока и сообщает клиенту
// его собственный токен для пометки исходящих изменений.
type UpdateRecord struct {
	DocumentID string    `json:"document_id"`          // ID документа
	Elements   []Element `json:"elements"`             // полный срез элементов документа
	Origin     string    `json:"origin,omitempty"`     // токен подписчика-источника
	Subscriber string    `json:"subscriber,omitempty"` // собственный токен получателя (только initial)
}

// SubmitUpdateRequest представляет отправку локальных изменений документа.
// Elements — полный снимок списка элементов; Origin — токен подписчика
// клиента, чтобы сервер исключил его из рассылки.
type SubmitUpdateRequest struct {
	Elements []Element `json:"elements"`
	Origin   string    `json:"origin,omitempty"`
}

// SubmitUpdateResponse представляет ответ на отправку изменений.
// Elements содержит каноничный снимок после применения per-element LWW:
// он может отличаться от отправленного, если часть элементов на сервере
// оказалась новее.
type SubmitUpdateResponse struct {
	Elements  []Element `json:"elements"`
	UpdatedAt int64     `json:"updated_at"` // unix время применения на сервере
}
