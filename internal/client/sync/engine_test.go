package sync

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/drawboard/internal/client/storage"
	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func el(id string, version int64) models.Element {
	return models.Element{ID: id, Version: version, Payload: []byte(`{}`)}
}

func apiEl(id string, version int64) api.Element {
	return api.Element{ID: id, Version: version, Payload: []byte(`{}`)}
}

func versions(s models.Snapshot) map[string]int64 {
	out := make(map[string]int64, len(s))
	for _, e := range s {
		out[e.ID] = e.Version
	}
	return out
}

func TestMerge_AdoptsRemoteEdit(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1)}
	current := lastSynced.Clone() // локальных правок нет
	incoming := models.Snapshot{el("x", 2)}

	result := merge(current, incoming, lastSynced)
	assert.Equal(t, map[string]int64{"x": 2}, versions(result))
}

func TestMerge_LocalWinsOverStaleIncoming(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1)}
	current := models.Snapshot{el("x", 2)} // локальная правка после синхронизации
	incoming := models.Snapshot{el("x", 1)} // запоздавшая доставка старого состояния

	result := merge(current, incoming, lastSynced)
	assert.Equal(t, map[string]int64{"x": 2}, versions(result))
}

func TestMerge_IncomingWinsOverOlderLocalEdit(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1)}
	current := models.Snapshot{el("x", 2)}
	incoming := models.Snapshot{el("x", 3)} // remote правка новее локальной

	result := merge(current, incoming, lastSynced)
	assert.Equal(t, map[string]int64{"x": 3}, versions(result))
}

func TestMerge_DeletionPropagation(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1), el("y", 1)}
	current := lastSynced.Clone()
	incoming := models.Snapshot{el("x", 1)} // y удален remote

	result := merge(current, incoming, lastSynced)
	assert.Equal(t, map[string]int64{"x": 1}, versions(result))
}

func TestMerge_KeepsBrandNewLocalElement(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1)}
	current := models.Snapshot{el("x", 1), el("z", 1)} // z еще не доехал до сервера
	incoming := models.Snapshot{el("x", 2)}

	result := merge(current, incoming, lastSynced)
	assert.Equal(t, map[string]int64{"x": 2, "z": 1}, versions(result))
}

func TestMerge_Idempotent(t *testing.T) {
	lastSynced := models.Snapshot{el("x", 1), el("y", 1)}
	current := models.Snapshot{el("x", 3), el("z", 1)}
	incoming := models.Snapshot{el("x", 2), el("y", 2)}

	first := merge(current, incoming, lastSynced)
	// повторный merge того же incoming поверх результата, база - incoming
	second := merge(first, incoming, incoming)

	assert.Equal(t, versions(first), versions(second))
}

// testEngine запускает движок с быстрым таймером и возвращает его
// вместе с каналом состояний
func testEngine(t *testing.T, cfg Config) (*Engine, context.Context, chan models.Snapshot) {
	t.Helper()

	states := make(chan models.Snapshot, 16)
	cfg.Logger = testLogger()
	cfg.OnState = func(s models.Snapshot) { states <- s }
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Millisecond
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}

	engine := NewEngine(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = engine.Run(ctx) }()

	return engine, ctx, states
}

func waitState(t *testing.T, states chan models.Snapshot) models.Snapshot {
	t.Helper()
	select {
	case s := <-states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state update")
		return nil
	}
}

func waitSubmit(t *testing.T, submitter *SubmitterMock, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(submitter.SubmitUpdateCalls()) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d submit calls, got %d", n, len(submitter.SubmitUpdateCalls()))
}

func TestEngine_ThrottledSubmitCarriesToken(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements, UpdatedAt: time.Now().Unix()}, nil
		},
	}

	engine, ctx, _ := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
	})

	require.NoError(t, engine.Edit(ctx, models.Snapshot{el("a1", 1)}))

	waitSubmit(t, submitter, 1)
	call := submitter.SubmitUpdateCalls()[0]
	assert.Equal(t, "doc-1", call.DocumentID)
	assert.Equal(t, "my-token", call.Req.Origin)
	require.Len(t, call.Req.Elements, 1)
	assert.Equal(t, "a1", call.Req.Elements[0].ID)
}

func TestEngine_CoalescesEditsWithinInterval(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	engine, ctx, _ := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Interval:   50 * time.Millisecond,
	})

	// серия быстрых правок внутри одного интервала
	for v := int64(1); v <= 5; v++ {
		require.NoError(t, engine.Edit(ctx, models.Snapshot{el("a1", v)}))
	}

	waitSubmit(t, submitter, 1)
	// дать второй возможный тик - повторной отправки быть не должно
	time.Sleep(120 * time.Millisecond)

	calls := submitter.SubmitUpdateCalls()
	require.Len(t, calls, 1)
	// уходит только последнее состояние
	assert.EqualValues(t, 5, calls[0].Req.Elements[0].Version)
}

func TestEngine_UnchangedFingerprintIsNoop(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	initial := models.Snapshot{el("a1", 1)}
	engine, ctx, _ := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Initial:    initial,
	})

	// тот же (id, version) набор с другим payload - не смысловое изменение
	same := models.Snapshot{{ID: "a1", Version: 1, Payload: []byte(`{"other":true}`)}}
	require.NoError(t, engine.Edit(ctx, same))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, submitter.SubmitUpdateCalls())
}

func TestEngine_SuppressesOwnEcho(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	initial := models.Snapshot{el("a1", 2)}
	engine, ctx, states := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Initial:    initial,
	})

	// эхо собственной отправки: должно быть отброшено без merge
	echo := &api.UpdateRecord{
		DocumentID: "doc-1",
		Elements:   []api.Element{apiEl("a1", 1)},
		Origin:     "my-token",
	}
	require.NoError(t, engine.ApplyRemote(ctx, echo))

	// чужая запись применяется
	foreign := &api.UpdateRecord{
		DocumentID: "doc-1",
		Elements:   []api.Element{apiEl("a1", 3)},
		Origin:     "other-token",
	}
	require.NoError(t, engine.ApplyRemote(ctx, foreign))

	state := waitState(t, states)
	assert.Equal(t, map[string]int64{"a1": 3}, versions(state))
}

func TestEngine_RemoteMergeKeepsLocalEdit(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	initial := models.Snapshot{el("x", 1)}
	engine, ctx, states := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Initial:    initial,
		Interval:   time.Hour, // отправка не мешает сценарию
	})

	// локальная правка x -> v2
	require.NoError(t, engine.Edit(ctx, models.Snapshot{el("x", 2)}))
	waitState(t, states)

	// запоздавшее старое состояние x:v1 не должно откатить правку
	stale := &api.UpdateRecord{
		DocumentID: "doc-1",
		Elements:   []api.Element{apiEl("x", 1)},
		Origin:     "other-token",
	}
	require.NoError(t, engine.ApplyRemote(ctx, stale))

	state := waitState(t, states)
	assert.Equal(t, map[string]int64{"x": 2}, versions(state))
}

func TestEngine_FirstSyncReplacesCurrent(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	// пустой initial без локальных правок: первая запись принимается целиком
	engine, ctx, states := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Interval:   time.Hour,
	})

	first := &api.UpdateRecord{
		DocumentID: "doc-1",
		Elements:   []api.Element{apiEl("a", 1), apiEl("b", 2)},
		Origin:     "other-token",
	}
	require.NoError(t, engine.ApplyRemote(ctx, first))

	state := waitState(t, states)
	assert.Equal(t, map[string]int64{"a": 1, "b": 2}, versions(state))
}

func TestEngine_EmptyBoardKeepsPendingLocalElement(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements}, nil
		},
	}

	// пустая доска: initial {}, длинный интервал держит правку pending
	engine, ctx, states := testEngine(t, Config{
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Interval:   time.Hour,
	})

	// локальный элемент добавлен, отправка еще не произошла
	require.NoError(t, engine.Edit(ctx, models.Snapshot{el("a1", 1)}))
	waitState(t, states)

	// чужая рассылка на той же пустой доске не должна стереть a1
	rec := &api.UpdateRecord{
		DocumentID: "doc-1",
		Elements:   []api.Element{apiEl("b1", 1)},
		Origin:     "other-token",
	}
	require.NoError(t, engine.ApplyRemote(ctx, rec))

	state := waitState(t, states)
	assert.Equal(t, map[string]int64{"a1": 1, "b1": 1}, versions(state))
}

func TestEngine_RetriesThenDegrades(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, _ api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return nil, assert.AnError
		},
	}

	degraded := make(chan error, 1)
	states := make(chan models.Snapshot, 16)

	engine := NewEngine(Config{
		Logger:     testLogger(),
		Submitter:  submitter,
		DocumentID: "doc-1",
		Token:      "my-token",
		Interval:   5 * time.Millisecond,
		RetryDelay: time.Millisecond,
		MaxRetries: 2,
		OnState:    func(s models.Snapshot) { states <- s },
		OnDegraded: func(err error) {
			select {
			case degraded <- err:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = engine.Run(ctx) }()

	require.NoError(t, engine.Edit(ctx, models.Snapshot{el("a1", 1)}))

	select {
	case err := <-degraded:
		assert.Contains(t, err.Error(), "connectivity degraded")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for degraded signal")
	}

	// состояние не потеряно: таймер продолжает пытаться
	waitSubmit(t, submitter, 3)
}

func TestEngine_PersistsSnapshotCache(t *testing.T) {
	submitter := &SubmitterMock{
		SubmitUpdateFunc: func(_ context.Context, _ string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
			return &api.SubmitUpdateResponse{Elements: req.Elements, UpdatedAt: time.Now().Unix()}, nil
		},
	}
	boards := &storage.BoardStorageMock{
		SaveSnapshotFunc: func(_ context.Context, _ string, _ models.Snapshot) error { return nil },
	}
	metadata := &storage.MetadataStorageMock{
		SaveLastSyncFunc: func(_ context.Context, _ string, _ int64) error { return nil },
	}

	engine, ctx, _ := testEngine(t, Config{
		Submitter:  submitter,
		Boards:     boards,
		Metadata:   metadata,
		DocumentID: "doc-1",
		Token:      "my-token",
	})

	require.NoError(t, engine.Edit(ctx, models.Snapshot{el("a1", 1)}))
	waitSubmit(t, submitter, 1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(boards.SaveSnapshotCalls()) == 0 {
		time.Sleep(time.Millisecond)
	}

	calls := boards.SaveSnapshotCalls()
	require.NotEmpty(t, calls, "snapshot must be cached after a successful submit")
	assert.Equal(t, "doc-1", calls[0].DocumentID)
	assert.Equal(t, map[string]int64{"a1": 1}, versions(calls[0].Snapshot))
	assert.NotEmpty(t, metadata.SaveLastSyncCalls())
}
