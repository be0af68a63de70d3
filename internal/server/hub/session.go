package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/pkg/api"
)

//go:generate go tool moq -out session_mock.go . AccessChecker DocumentReader UpdateStream

// ErrAccessDenied возвращается, когда авторизация отклонила подписку.
// Сессия при этом никогда не регистрируется в реестре.
var ErrAccessDenied = errors.New("access denied")

// State представляет состояние жизненного цикла сессии подписки
type State int32

const (
	// StatePending — подключение установлено, документ еще не запрошен
	StatePending State = iota
	// StateAuthorizing — выполняется проверка доступа
	StateAuthorizing
	// StateActive — подписчик зарегистрирован, обновления стримятся
	StateActive
	// StateClosed — терминальное состояние, подписка снята
	StateClosed
)

// String возвращает читаемое имя состояния
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthorizing:
		return "authorizing"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AccessChecker — внешний оракул авторизации:
// может ли principal читать документ.
type AccessChecker interface {
	CanAccess(ctx context.Context, userID, documentID string) (bool, error)
}

// DocumentReader отдает текущее персистентное состояние документа.
// Используется для начальной доставки мимо broadcast-пути.
type DocumentReader interface {
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)
}

// UpdateStream — исходящий поток записей к одному клиенту.
// Send возвращает ошибку при закрытии/разрыве потока.
type UpdateStream interface {
	Send(rec *api.UpdateRecord) error
}

// Session обслуживает одно живое подключение подписки на документ.
// Жизненный цикл: Pending -> Authorizing -> Active -> Closed; Closed
// терминально и снимает подписку ровно один раз.
type Session struct {
	registry *Registry
	access   AccessChecker
	docs     DocumentReader
	logger   *slog.Logger

	documentID string
	token      string
	state      atomic.Int32
	closeOnce  sync.Once
}

// NewSession создает сессию в состоянии Pending
func NewSession(registry *Registry, access AccessChecker, docs DocumentReader, logger *slog.Logger) *Session {
	return &Session{
		registry: registry,
		access:   access,
		docs:     docs,
		logger:   logger,
	}
}

// State возвращает текущее состояние сессии
func (s *Session) State() State {
	return State(s.state.Load())
}

// Token возвращает токен подписчика, выданный при регистрации.
// Пустая строка до перехода в Active.
func (s *Session) Token() string {
	return s.token
}

// Run выполняет полный жизненный цикл сессии: авторизация, регистрация,
// начальная доставка состояния, стриминг обновлений. Блокируется до отмены
// контекста, разрыва потока или снятия подписки. Возвращает ErrAccessDenied,
// если оракул отклонил доступ — подписчик в этом случае не регистрировался.
func (s *Session) Run(ctx context.Context, documentID, userID string, stream UpdateStream) error {
	s.state.Store(int32(StateAuthorizing))

	allowed, err := s.access.CanAccess(ctx, userID, documentID)
	if err != nil {
		s.state.Store(int32(StateClosed))
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		s.state.Store(int32(StateClosed))
		s.logger.Warn("subscription denied",
			"document_id", documentID,
			"user_id", userID)
		return ErrAccessDenied
	}

	token, updates := s.registry.Subscribe(documentID)
	s.documentID = documentID
	s.token = token
	s.state.Store(int32(StateActive))
	defer s.close()

	s.logger.Info("subscription active",
		"document_id", documentID,
		"user_id", userID,
		"token", token)

	// Начальная доставка текущего состояния — прямое чтение, мимо
	// broadcast-пути: новый клиент не должен оставаться пустым до
	// чьей-нибудь следующей правки. Первая запись несет токен
	// подписчика, чтобы клиент мог помечать свои отправки.
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load initial document state: %w", err)
	}

	initial := &api.UpdateRecord{
		DocumentID: documentID,
		Elements:   doc.Elements.ToAPI(),
		Subscriber: token,
	}
	if err := stream.Send(initial); err != nil {
		return fmt.Errorf("failed to send initial state: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			// Клиент отключился или сервер останавливается
			return nil
		case rec, ok := <-updates:
			if !ok {
				// Канал закрыт реестром: подписка уже снята
				return nil
			}
			if err := stream.Send(rec); err != nil {
				return fmt.Errorf("failed to forward update: %w", err)
			}
		}
	}
}

// close переводит сессию в Closed и снимает подписку.
// Защищено sync.Once: повторные сигналы закрытия безвредны.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		if s.token != "" {
			s.registry.Unsubscribe(s.documentID, s.token)
		}
		s.logger.Debug("subscription closed",
			"document_id", s.documentID,
			"token", s.token)
	})
}
