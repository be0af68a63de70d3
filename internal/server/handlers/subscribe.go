package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/iudanet/drawboard/internal/server/hub"
	"github.com/iudanet/drawboard/pkg/api"
)

// writeWait максимальное время записи одного сообщения в websocket
const writeWait = 10 * time.Second

// SubscribeHandler открывает websocket подписки на обновления документа.
// Жизненным циклом подписки управляет hub.Session; handler отвечает только
// за транспорт: upgrade соединения и детекцию разрыва со стороны клиента.
type SubscribeHandler struct {
	logger   *slog.Logger
	registry *hub.Registry
	access   hub.AccessChecker
	docs     hub.DocumentReader
	upgrader websocket.Upgrader
}

// NewSubscribeHandler создает новый handler подписок
func NewSubscribeHandler(logger *slog.Logger, registry *hub.Registry, access hub.AccessChecker, docs hub.DocumentReader) *SubscribeHandler {
	return &SubscribeHandler{
		logger:   logger,
		registry: registry,
		access:   access,
		docs:     docs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Браузерный origin проверяет обратный прокси
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleSubscribe обрабатывает GET /api/v1/documents/{id}/subscribe
// Апгрейдит соединение до websocket и стримит UpdateRecord'ы
func (h *SubscribeHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	documentID := mux.Vars(r)["id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			"document_id", documentID,
			"error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: клиент ничего не шлет по подписке, но чтение нужно,
	// чтобы заметить закрытие соединения и обработать control frames
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	session := hub.NewSession(h.registry, h.access, h.docs, h.logger)
	err = session.Run(ctx, documentID, userID, &wsStream{conn: conn})

	switch {
	case err == nil:
		h.closeConn(conn, websocket.CloseNormalClosure, "")
	case errors.Is(err, hub.ErrAccessDenied):
		h.closeConn(conn, websocket.ClosePolicyViolation, "access denied")
	default:
		h.logger.Warn("subscription terminated",
			"document_id", documentID,
			"user_id", userID,
			"error", err)
	}
}

// closeConn отправляет close frame; ошибки игнорируются, соединение
// все равно закрывается в defer
func (h *SubscribeHandler) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// wsStream адаптирует websocket соединение под hub.UpdateStream.
// Мьютекс сериализует записи: gorilla/websocket допускает
// только одного конкурентного писателя.
type wsStream struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send сериализует запись в JSON и пишет ее в websocket
func (s *wsStream) Send(rec *api.UpdateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(rec)
}
