package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/drawboard/pkg/api"
)

// channelCapacity — емкость канала доставки подписчика.
// Буфер на одну запись: хранится только последнее состояние документа,
// очереди нет. Если подписчик не успел прочитать предыдущую запись,
// новая для него отбрасывается (drop-on-full).
const channelCapacity = 1

// subscriber представляет одно живое подключение к документу:
// токен подключения и канал доставки обновлений.
type subscriber struct {
	token string
	ch    chan *api.UpdateRecord
}

// Registry ведет список живых подписчиков по каждому документу
// и выполняет fan-out обновлений. Единственный источник истины
// "кого уведомлять"; реестр эксклюзивно владеет списками подписчиков.
type Registry struct {
	logger *slog.Logger
	subs   map[string][]subscriber // map[documentID]список подписчиков
	mu     sync.RWMutex
}

// NewRegistry создает новый реестр подписчиков
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		subs:   make(map[string][]subscriber),
	}
}

// Subscribe регистрирует нового подписчика документа.
// Возвращает уникальный токен подключения и канал доставки.
// Токен различает одновременные подключения одного пользователя,
// это не security credential. Subscribe не может завершиться ошибкой:
// авторизация выполняется вызывающей стороной до регистрации.
func (r *Registry) Subscribe(documentID string) (string, <-chan *api.UpdateRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := subscriber{
		token: uuid.New().String(),
		ch:    make(chan *api.UpdateRecord, channelCapacity),
	}
	r.subs[documentID] = append(r.subs[documentID], sub)

	r.logger.Debug("subscriber registered",
		"document_id", documentID,
		"token", sub.token,
		"subscribers", len(r.subs[documentID]))

	return sub.token, sub.ch
}

// Unsubscribe удаляет подписчика и закрывает его канал доставки.
// Если список подписчиков документа опустел, запись документа удаляется
// из реестра целиком, а не остается пустой. Идемпотентна: неизвестный
// токен — no-op.
func (r *Registry) Unsubscribe(documentID, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subs[documentID]
	for i, sub := range subs {
		if sub.token == token {
			r.subs[documentID] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)

			r.logger.Debug("subscriber removed",
				"document_id", documentID,
				"token", token,
				"subscribers", len(r.subs[documentID]))
			break
		}
	}

	if len(r.subs[documentID]) == 0 {
		delete(r.subs, documentID)
	}
}

// Broadcast рассылает запись всем подписчикам документа, кроме подписчика
// с токеном rec.Origin: источник уже имеет это состояние локально и не
// должен перетирать им свои незакоммиченные правки. Отправка неблокирующая:
// полный канал означает, что подписчик еще не прочитал предыдущее
// состояние — для него эта запись отбрасывается без повтора, сходимость
// обеспечит следующая рассылка. Закрытие канала и отправка в него защищены
// одним и тем же локом, отправка в закрытый канал невозможна.
func (r *Registry) Broadcast(documentID string, rec *api.UpdateRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs, ok := r.subs[documentID]
	if !ok {
		return
	}

	delivered, dropped := 0, 0
	for _, sub := range subs {
		if sub.token == rec.Origin {
			continue
		}

		select {
		case sub.ch <- rec:
			delivered++
		default:
			// Подписчик отстал — последнее состояние важнее промежуточных
			dropped++
		}
	}

	if dropped > 0 {
		r.logger.Debug("broadcast delivery dropped for slow subscribers",
			"document_id", documentID,
			"delivered", delivered,
			"dropped", dropped)
	}
}

// Subscribers возвращает число живых подписчиков документа
func (r *Registry) Subscribers(documentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs[documentID])
}

// Documents возвращает число документов с хотя бы одним подписчиком
func (r *Registry) Documents() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}
