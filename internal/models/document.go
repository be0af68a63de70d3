package models

import (
	"encoding/binary"
	"encoding/json"
	"hash/fnv"
	"time"

	"github.com/iudanet/drawboard/pkg/api"
)

// Element представляет один элемент канваса: индивидуально адресуемую и
// индивидуально версионируемую единицу документа. Payload непрозрачен для
// ядра синхронизации — сравниваются только (ID, Version).
type Element struct {
	ID      string          `json:"id"`      // уникальный в пределах документа ID (UUID)
	Version int64           `json:"version"` // монотонно растущая версия элемента
	Payload json.RawMessage `json:"payload"` // данные элемента (форма/позиция/стиль)
}

// IsNewerThan сравнивает версии двух копий одного элемента.
// Версия никогда не уменьшается: большая версия всегда означает
// каузально более позднее изменение с какого-то клиента.
func (e *Element) IsNewerThan(other *Element) bool {
	return e.Version > other.Version
}

// Clone создает глубокую копию элемента
func (e *Element) Clone() Element {
	payload := make(json.RawMessage, len(e.Payload))
	copy(payload, e.Payload)

	return Element{
		ID:      e.ID,
		Version: e.Version,
		Payload: payload,
	}
}

// Snapshot представляет упорядоченный список элементов документа —
// единицу обмена между клиентом и сервером. Передается по значению,
// методы не мутируют получателя.
type Snapshot []Element

// Clone создает глубокую копию snapshot
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}

	result := make(Snapshot, 0, len(s))
	for i := range s {
		result = append(result, s[i].Clone())
	}
	return result
}

// Index строит отображение ID -> элемент для поиска при merge.
// Элементы не копируются, индекс действителен пока snapshot не мутируется.
func (s Snapshot) Index() map[string]*Element {
	index := make(map[string]*Element, len(s))
	for i := range s {
		index[s[i].ID] = &s[i]
	}
	return index
}

// Fingerprint вычисляет дешевый отпечаток snapshot по упорядоченным парам
// (ID, Version), не читая payload. Используется для детекции изменений:
// совпадающий отпечаток означает, что по списку элементов ничего не менялось.
func (s Snapshot) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	for i := range s {
		_, _ = h.Write([]byte(s[i].ID))
		_, _ = h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], uint64(s[i].Version))
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}

// ToAPI конвертирует snapshot в wire-формат
func (s Snapshot) ToAPI() []api.Element {
	result := make([]api.Element, 0, len(s))
	for i := range s {
		result = append(result, api.Element{
			ID:      s[i].ID,
			Version: s[i].Version,
			Payload: s[i].Payload,
		})
	}
	return result
}

// SnapshotFromAPI конвертирует wire-формат в snapshot
func SnapshotFromAPI(elements []api.Element) Snapshot {
	result := make(Snapshot, 0, len(elements))
	for i := range elements {
		result = append(result, Element{
			ID:      elements[i].ID,
			Version: elements[i].Version,
			Payload: elements[i].Payload,
		})
	}
	return result
}

// Document представляет разделяемый редактируемый документ (канвас).
// Ядро синхронизации держит только in-memory снимок списка элементов;
// владельцем персистентного состояния является слой хранения.
type Document struct {
	CreatedAt time.Time `json:"created_at"` // время создания
	UpdatedAt time.Time `json:"updated_at"` // время последней мутации
	ID        string    `json:"id"`         // UUID документа
	Name      string    `json:"name"`       // отображаемое имя
	OwnerID   string    `json:"owner_id"`   // ID владельца
	Elements  Snapshot  `json:"elements"`   // текущий список элементов
}
