package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/drawboard/internal/client/storage"
	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/pkg/api"
)

//go:generate go tool moq -out engine_mock.go . Submitter

// Submitter отправляет снимок элементов на сервер.
// Реализуется api.Client.
type Submitter interface {
	SubmitUpdate(ctx context.Context, documentID string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error)
}

const (
	// DefaultInterval задает минимальный интервал между исходящими отправками.
	// Локальные правки внутри интервала коалесцируются: уходит только
	// последнее состояние на момент срабатывания таймера.
	DefaultInterval = 100 * time.Millisecond

	// DefaultMaxRetries ограничивает число повторов неудачной отправки
	DefaultMaxRetries = 3

	// DefaultRetryDelay - базовая задержка повтора; растет линейно с номером попытки
	DefaultRetryDelay = 200 * time.Millisecond
)

// Config описывает параметры движка синхронизации одного документа
type Config struct {
	Logger    *slog.Logger
	Submitter Submitter

	// Boards и Metadata опциональны: nil отключает локальный кеш
	Boards   storage.BoardStorage
	Metadata storage.MetadataStorage

	// OnState вызывается из цикла движка после каждого изменения
	// локального состояния (merge или локальная правка)
	OnState func(models.Snapshot)

	// OnDegraded вызывается при исчерпании повторов отправки.
	// Ожидающее состояние при этом не теряется - его отправит
	// следующий цикл таймера.
	OnDegraded func(error)

	DocumentID string

	// Token - собственный токен подписчика, полученный в первой
	// записи потока; им помечаются исходящие отправки
	Token string

	// Initial - состояние документа из initial delivery подписки
	Initial models.Snapshot

	Interval   time.Duration
	RetryDelay time.Duration
	MaxRetries int
}

// Engine синхронизирует один открытый документ с сервером.
// Все состояние принадлежит циклу Run: правки и входящие записи
// передаются через каналы и обрабатываются последовательно, поэтому
// блокировки не нужны.
type Engine struct {
	logger     *slog.Logger
	submitter  Submitter
	boards     storage.BoardStorage
	metadata   storage.MetadataStorage
	onState    func(models.Snapshot)
	onDegraded func(error)

	edits  chan models.Snapshot
	remote chan *api.UpdateRecord

	documentID string
	token      string

	// три снимка трехстороннего merge
	current    models.Snapshot
	lastSynced models.Snapshot

	lastFingerprint uint64
	pending         bool

	interval   time.Duration
	retryDelay time.Duration
	maxRetries int
}

// NewEngine создает движок синхронизации документа
func NewEngine(cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	current := cfg.Initial.Clone()

	return &Engine{
		logger:          cfg.Logger,
		submitter:       cfg.Submitter,
		boards:          cfg.Boards,
		metadata:        cfg.Metadata,
		onState:         cfg.OnState,
		onDegraded:      cfg.OnDegraded,
		edits:           make(chan models.Snapshot, 1),
		remote:          make(chan *api.UpdateRecord, 1),
		documentID:      cfg.DocumentID,
		token:           cfg.Token,
		current:         current,
		lastSynced:      cfg.Initial.Clone(),
		lastFingerprint: current.Fingerprint(),
		interval:        cfg.Interval,
		retryDelay:      cfg.RetryDelay,
		maxRetries:      cfg.MaxRetries,
	}
}

// Edit передает движку новое локальное состояние элементов.
// Блокируется, пока цикл Run не примет снимок.
func (e *Engine) Edit(ctx context.Context, snapshot models.Snapshot) error {
	select {
	case e.edits <- snapshot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyRemote передает движку запись из потока подписки
func (e *Engine) ApplyRemote(ctx context.Context, rec *api.UpdateRecord) error {
	select {
	case e.remote <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run запускает цикл синхронизации и блокируется до отмены контекста.
// Правки, входящие записи и таймер отправки обрабатываются одним
// циклом - merge и отправка никогда не выполняются одновременно.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snapshot := <-e.edits:
			e.handleLocalEdit(snapshot)

		case rec := <-e.remote:
			e.handleRemote(ctx, rec)

		case <-ticker.C:
			if e.pending {
				e.flush(ctx)
			}
		}
	}
}

// handleLocalEdit принимает локальную правку и планирует отправку.
// Снимок с неизменившимся fingerprint игнорируется: это либо правка
// без смысловых изменений, либо повторная подача только что
// слитого remote состояния.
func (e *Engine) handleLocalEdit(snapshot models.Snapshot) {
	fp := snapshot.Fingerprint()
	if fp == e.lastFingerprint {
		return
	}

	e.current = snapshot.Clone()
	e.lastFingerprint = fp
	e.pending = true

	e.notifyState()
}

// handleRemote применяет запись из потока подписки к локальному состоянию
func (e *Engine) handleRemote(ctx context.Context, rec *api.UpdateRecord) {
	// собственное эхо: сервер исключает источник из рассылки, но
	// запись могла прийти из потока, открытого до отправки
	if rec.Origin != "" && rec.Origin == e.token {
		e.logger.Debug("suppressing own echo", "document_id", e.documentID)
		return
	}

	incoming := models.SnapshotFromAPI(rec.Elements)

	// merge выполняется и при пустой базе: на пустой доске уже могут
	// быть локальные элементы, ожидающие отправки, - замена состояния
	// целиком молча стерла бы их
	e.current = merge(e.current, incoming, e.lastSynced)

	// база следующего merge - именно полученный снимок, не результат:
	// иначе сравнение "локальная правка после последней синхронизации"
	// на следующем круге даст неверный ответ
	e.lastSynced = incoming
	e.lastFingerprint = e.current.Fingerprint()

	e.persistSnapshot(ctx)
	e.notifyState()
}

// flush отправляет текущее состояние с линейным backoff между повторами
func (e *Engine) flush(ctx context.Context) {
	req := api.SubmitUpdateRequest{
		Elements: e.current.ToAPI(),
		Origin:   e.token,
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.submitter.SubmitUpdate(ctx, e.documentID, req)
		if err == nil {
			// сервер вернул каноничное состояние после LWW: элементы,
			// оказавшиеся на сервере новее, уже учтены в нем
			e.lastSynced = models.SnapshotFromAPI(resp.Elements)
			e.pending = false
			e.persistSnapshot(ctx)
			return
		}

		lastErr = err
		e.logger.Warn("submit failed",
			"document_id", e.documentID,
			"attempt", attempt,
			"error", err)

		if attempt == e.maxRetries {
			break
		}

		// линейный backoff: задержка растет с номером попытки
		select {
		case <-time.After(time.Duration(attempt) * e.retryDelay):
		case <-ctx.Done():
			return
		}
	}

	// состояние остается pending: его отправит следующий цикл таймера
	e.logger.Error("submit retries exhausted",
		"document_id", e.documentID,
		"error", lastErr)

	if e.onDegraded != nil {
		e.onDegraded(fmt.Errorf("connectivity degraded: %w", lastErr))
	}
}

// merge выполняет трехсторонний merge поэлементно:
// локальная правка (current новее lastSynced) с версией не ниже
// incoming переживает merge, иначе побеждает incoming. Элементы,
// отсутствующие в incoming, сохраняются только если remote их
// еще не видел (нет в lastSynced); иначе это удаление.
func merge(current, incoming, lastSynced models.Snapshot) models.Snapshot {
	currentIdx := current.Index()
	lastIdx := lastSynced.Index()
	incomingIdx := incoming.Index()

	result := make(models.Snapshot, 0, len(incoming))

	for _, in := range incoming {
		cur, hasLocal := currentIdx[in.ID]
		if !hasLocal {
			result = append(result, in.Clone())
			continue
		}

		last, wasSynced := lastIdx[in.ID]
		locallyEdited := !wasSynced || cur.Version > last.Version

		if locallyEdited && cur.Version >= in.Version {
			result = append(result, cur.Clone())
		} else {
			result = append(result, in.Clone())
		}
	}

	// элементы current, которых нет в incoming
	for _, cur := range current {
		if _, ok := incomingIdx[cur.ID]; ok {
			continue
		}
		if _, wasSynced := lastIdx[cur.ID]; wasSynced {
			// remote знал об элементе и убрал его - удаление
			continue
		}
		// новый локальный элемент, еще не доехавший до сервера
		result = append(result, cur.Clone())
	}

	return result
}

// persistSnapshot кеширует текущее состояние в локальном хранилище
func (e *Engine) persistSnapshot(ctx context.Context) {
	if e.boards != nil {
		if err := e.boards.SaveSnapshot(ctx, e.documentID, e.current); err != nil {
			e.logger.Warn("failed to cache snapshot",
				"document_id", e.documentID,
				"error", err)
		}
	}
	if e.metadata != nil {
		if err := e.metadata.SaveLastSync(ctx, e.documentID, time.Now().Unix()); err != nil {
			e.logger.Warn("failed to save last sync timestamp",
				"document_id", e.documentID,
				"error", err)
		}
	}
}

func (e *Engine) notifyState() {
	if e.onState != nil {
		e.onState(e.current.Clone())
	}
}
