package hub

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/drawboard/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func testRecord(documentID, origin string) *api.UpdateRecord {
	return &api.UpdateRecord{
		DocumentID: documentID,
		Elements: []api.Element{
			{ID: "e1", Version: 1, Payload: []byte(`{"type":"rect"}`)},
		},
		Origin: origin,
	}
}

func TestRegistry_Subscribe(t *testing.T) {
	registry := NewRegistry(testLogger())

	token1, ch1 := registry.Subscribe("doc-1")
	token2, ch2 := registry.Subscribe("doc-1")

	require.NotNil(t, ch1)
	require.NotNil(t, ch2)
	assert.NotEmpty(t, token1)
	assert.NotEmpty(t, token2)
	assert.NotEqual(t, token1, token2, "Tokens must distinguish concurrent connections")

	assert.Equal(t, 2, registry.Subscribers("doc-1"))
	assert.Equal(t, 1, registry.Documents())
}

func TestRegistry_Unsubscribe(t *testing.T) {
	registry := NewRegistry(testLogger())

	token1, ch1 := registry.Subscribe("doc-1")
	token2, _ := registry.Subscribe("doc-1")

	registry.Unsubscribe("doc-1", token1)
	assert.Equal(t, 1, registry.Subscribers("doc-1"))

	// Канал удаленного подписчика закрыт
	_, ok := <-ch1
	assert.False(t, ok, "Channel of removed subscriber should be closed")

	// Последний подписчик уходит - запись документа удаляется целиком
	registry.Unsubscribe("doc-1", token2)
	assert.Equal(t, 0, registry.Subscribers("doc-1"))
	assert.Equal(t, 0, registry.Documents(), "Empty document entry must be deleted, not kept")
}

func TestRegistry_Unsubscribe_Idempotent(t *testing.T) {
	registry := NewRegistry(testLogger())

	token, _ := registry.Subscribe("doc-1")

	// Неизвестный токен - no-op
	registry.Unsubscribe("doc-1", "unknown-token")
	assert.Equal(t, 1, registry.Subscribers("doc-1"))

	// Неизвестный документ - no-op
	registry.Unsubscribe("doc-missing", token)
	assert.Equal(t, 1, registry.Subscribers("doc-1"))

	// Повторный unsubscribe того же токена безвреден
	registry.Unsubscribe("doc-1", token)
	registry.Unsubscribe("doc-1", token)
	assert.Equal(t, 0, registry.Documents())
}

func TestRegistry_Broadcast_ExcludesOrigin(t *testing.T) {
	registry := NewRegistry(testLogger())

	originToken, originCh := registry.Subscribe("doc-1")
	_, otherCh := registry.Subscribe("doc-1")

	registry.Broadcast("doc-1", testRecord("doc-1", originToken))

	// Источник никогда не получает собственное обновление
	select {
	case rec := <-originCh:
		t.Fatalf("Origin subscriber must not receive its own update, got %+v", rec)
	default:
	}

	// Остальные подписчики получают
	select {
	case rec := <-otherCh:
		assert.Equal(t, "doc-1", rec.DocumentID)
		assert.Equal(t, originToken, rec.Origin)
	default:
		t.Fatal("Other subscriber should have received the update")
	}
}

func TestRegistry_Broadcast_DropOnFull(t *testing.T) {
	registry := NewRegistry(testLogger())

	_, slowCh := registry.Subscribe("doc-1")
	_, fastCh := registry.Subscribe("doc-1")

	// Первая рассылка заполняет оба канала (емкость 1)
	registry.Broadcast("doc-1", testRecord("doc-1", ""))

	// Быстрый подписчик читает, медленный - нет
	<-fastCh

	// Вторая рассылка: для медленного отбрасывается, быстрому доставляется,
	// Broadcast не блокируется и не паникует
	registry.Broadcast("doc-1", testRecord("doc-1", ""))

	select {
	case <-fastCh:
	default:
		t.Fatal("Fast subscriber should have received the second update")
	}

	// У медленного в буфере ровно одна (первая) запись
	<-slowCh
	select {
	case rec := <-slowCh:
		t.Fatalf("Slow subscriber should have missed the dropped update, got %+v", rec)
	default:
	}
}

func TestRegistry_Broadcast_UnknownDocument(t *testing.T) {
	registry := NewRegistry(testLogger())

	// Рассылка в документ без подписчиков - no-op
	registry.Broadcast("doc-missing", testRecord("doc-missing", ""))
}

func TestRegistry_Broadcast_IsolatedDocuments(t *testing.T) {
	registry := NewRegistry(testLogger())

	_, ch1 := registry.Subscribe("doc-1")
	_, ch2 := registry.Subscribe("doc-2")

	registry.Broadcast("doc-1", testRecord("doc-1", ""))

	select {
	case rec := <-ch2:
		t.Fatalf("Subscriber of another document must not receive the update, got %+v", rec)
	default:
	}

	select {
	case rec := <-ch1:
		assert.Equal(t, "doc-1", rec.DocumentID)
	default:
		t.Fatal("Subscriber of doc-1 should have received the update")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry(testLogger())

	const workers = 16
	var wg sync.WaitGroup

	// Параллельные subscribe/broadcast/unsubscribe не должны гонять
	// (запускать с -race)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			docID := fmt.Sprintf("doc-%d", n%4)
			token, ch := registry.Subscribe(docID)

			registry.Broadcast(docID, testRecord(docID, ""))

			select {
			case <-ch:
			default:
			}

			registry.Unsubscribe(docID, token)
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 0, registry.Documents())
}
