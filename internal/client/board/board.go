package board

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/drawboard/internal/models"
)

// Board хранит локальную рабочую копию списка элементов открытого
// документа. Версия элемента увеличивается при каждой правке - так
// merge на других клиентах узнает, чья копия каузально новее.
// Board не потокобезопасен: им владеет один цикл редактирования.
type Board struct {
	elements models.Snapshot
}

// New создает рабочую копию из начального снимка
func New(initial models.Snapshot) *Board {
	return &Board{elements: initial.Clone()}
}

// Add добавляет новый элемент с версией 1 и возвращает его ID
func (b *Board) Add(payload json.RawMessage) (string, error) {
	if len(payload) > 0 && !json.Valid(payload) {
		return "", fmt.Errorf("element payload is not valid JSON")
	}

	id := uuid.New().String()
	b.elements = append(b.elements, models.Element{
		ID:      id,
		Version: 1,
		Payload: append(json.RawMessage(nil), payload...),
	})

	return id, nil
}

// Update заменяет payload элемента и увеличивает его версию
func (b *Board) Update(id string, payload json.RawMessage) error {
	if len(payload) > 0 && !json.Valid(payload) {
		return fmt.Errorf("element payload is not valid JSON")
	}

	for i := range b.elements {
		if b.elements[i].ID == id {
			b.elements[i].Version++
			b.elements[i].Payload = append(json.RawMessage(nil), payload...)
			return nil
		}
	}

	return fmt.Errorf("element %s not found", id)
}

// Remove удаляет элемент из рабочей копии
func (b *Board) Remove(id string) error {
	for i := range b.elements {
		if b.elements[i].ID == id {
			b.elements = append(b.elements[:i], b.elements[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("element %s not found", id)
}

// Apply заменяет рабочую копию результатом merge
func (b *Board) Apply(snapshot models.Snapshot) {
	b.elements = snapshot.Clone()
}

// Elements возвращает копию текущего состояния
func (b *Board) Elements() models.Snapshot {
	return b.elements.Clone()
}

// Len возвращает количество элементов
func (b *Board) Len() int {
	return len(b.elements)
}
