package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeElement(id string, version int64, payload string) Element {
	return Element{
		ID:      id,
		Version: version,
		Payload: json.RawMessage(payload),
	}
}

func TestElement_IsNewerThan(t *testing.T) {
	tests := []struct {
		name     string
		a        Element
		b        Element
		expected bool
	}{
		{
			name:     "higher version is newer",
			a:        makeElement("e1", 2, `{}`),
			b:        makeElement("e1", 1, `{}`),
			expected: true,
		},
		{
			name:     "lower version is not newer",
			a:        makeElement("e1", 1, `{}`),
			b:        makeElement("e1", 2, `{}`),
			expected: false,
		},
		{
			name:     "equal versions are not newer",
			a:        makeElement("e1", 3, `{}`),
			b:        makeElement("e1", 3, `{}`),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.IsNewerThan(&tt.b))
		})
	}
}

func TestElement_Clone(t *testing.T) {
	original := makeElement("e1", 5, `{"type":"rect"}`)
	clone := original.Clone()

	assert.Equal(t, original, clone)

	// Мутация клона не должна затрагивать оригинал
	clone.Payload[2] = 'x'
	assert.NotEqual(t, original.Payload, clone.Payload)
}

func TestSnapshot_Clone(t *testing.T) {
	snapshot := Snapshot{
		makeElement("e1", 1, `{"type":"rect"}`),
		makeElement("e2", 2, `{"type":"ellipse"}`),
	}

	clone := snapshot.Clone()
	require.Equal(t, snapshot, clone)

	clone[0].Version = 99
	assert.Equal(t, int64(1), snapshot[0].Version)

	// nil snapshot клонится в nil
	var empty Snapshot
	assert.Nil(t, empty.Clone())
}

func TestSnapshot_Index(t *testing.T) {
	snapshot := Snapshot{
		makeElement("e1", 1, `{}`),
		makeElement("e2", 2, `{}`),
	}

	index := snapshot.Index()
	require.Len(t, index, 2)
	assert.Equal(t, int64(2), index["e2"].Version)
	assert.Nil(t, index["missing"])
}

func TestSnapshot_Fingerprint(t *testing.T) {
	a := Snapshot{
		makeElement("e1", 1, `{"type":"rect"}`),
		makeElement("e2", 2, `{"type":"ellipse"}`),
	}

	// Отпечаток стабилен для одинаковых (id, version) пар
	assert.Equal(t, a.Fingerprint(), a.Clone().Fingerprint())

	// Payload не участвует в отпечатке
	b := a.Clone()
	b[0].Payload = json.RawMessage(`{"type":"diamond"}`)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// Рост версии меняет отпечаток
	c := a.Clone()
	c[0].Version = 2
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// Удаление элемента меняет отпечаток
	d := a[:1]
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())

	// Порядок элементов значим
	e := Snapshot{a[1], a[0]}
	assert.NotEqual(t, a.Fingerprint(), e.Fingerprint())
}

func TestSnapshot_APIRoundTrip(t *testing.T) {
	snapshot := Snapshot{
		makeElement("e1", 1, `{"type":"rect"}`),
		makeElement("e2", 2, `{"type":"ellipse"}`),
	}

	converted := SnapshotFromAPI(snapshot.ToAPI())
	assert.Equal(t, snapshot, converted)

	assert.Empty(t, SnapshotFromAPI(nil))
}
