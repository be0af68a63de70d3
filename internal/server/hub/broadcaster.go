package hub

import (
	"log/slog"

	"github.com/iudanet/drawboard/pkg/api"
)

// Broadcaster строит исходящую запись обновления и передает ее в реестр.
// Вызывается обработчиком мутаций синхронно и строго после того, как
// мутация успешно сохранена: подписчики никогда не видят состояние,
// которое могло быть отклонено.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBroadcaster создает новый broadcaster поверх реестра
func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger,
	}
}

// DocumentMutated рассылает новое состояние документа всем подписчикам,
// кроме источника мутации. originToken — токен подписчика, чей submit
// породил мутацию; получатели используют его для подавления self-echo.
func (b *Broadcaster) DocumentMutated(documentID string, elements []api.Element, originToken string) {
	rec := &api.UpdateRecord{
		DocumentID: documentID,
		Elements:   elements,
		Origin:     originToken,
	}

	b.logger.Debug("broadcasting document mutation",
		"document_id", documentID,
		"elements", len(elements),
		"origin", originToken)

	b.registry.Broadcast(documentID, rec)
}
