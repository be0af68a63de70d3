package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	gosync "sync"

	"github.com/iudanet/drawboard/internal/client/board"
	"github.com/iudanet/drawboard/internal/client/sync"
	"github.com/iudanet/drawboard/internal/models"
)

// runWatch открывает документ в интерактивном режиме: подписка на
// поток обновлений, движок синхронизации и цикл команд редактирования
func (c *Cli) runWatch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: drawboard watch <board-id>")
	}
	documentID := args[0]

	if _, err := c.authService.EnsureAuthenticated(ctx); err != nil {
		return err
	}

	// кешированный снимок показывается до получения состояния с сервера
	if c.boards != nil {
		if cached, err := c.boards.GetSnapshot(ctx, documentID); err == nil {
			c.io.Printf("Cached copy: %d elements. Connecting...\n", len(cached))
		}
	}

	sub, err := c.apiClient.Subscribe(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to open board: %w", err)
	}
	defer func() { _ = sub.Close() }()

	// первая запись потока - initial delivery с токеном подписчика
	initial, err := sub.Recv()
	if err != nil {
		return fmt.Errorf("failed to receive initial state: %w", err)
	}

	c.io.Printf("Connected to board %s (%d elements)\n", documentID, len(initial.Elements))
	c.io.Println("Commands: add <json> | update <id> <json> | del <id> | show | quit")

	// рабочая копия защищается мьютексом: цикл команд и колбэк
	// движка работают из разных горутин
	var mu gosync.Mutex
	b := board.New(models.SnapshotFromAPI(initial.Elements))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	engine := sync.NewEngine(sync.Config{
		Logger:     logger,
		Submitter:  c.apiClient,
		Boards:     c.boards,
		Metadata:   c.metadata,
		DocumentID: documentID,
		Token:      initial.Subscriber,
		Initial:    b.Elements(),
		OnState: func(s models.Snapshot) {
			mu.Lock()
			b.Apply(s)
			mu.Unlock()
		},
		OnDegraded: func(err error) {
			c.io.Printf("⚠ %v\n", err)
		},
	})

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() { _ = engine.Run(watchCtx) }()

	// поток подписки: каждая запись уходит в движок на merge
	go func() {
		defer cancel()
		for {
			rec, err := sub.Recv()
			if err != nil {
				return
			}
			if err := engine.ApplyRemote(watchCtx, rec); err != nil {
				return
			}
		}
	}()

	return c.watchLoop(watchCtx, engine, b, &mu)
}

// watchLoop читает команды редактирования до quit или обрыва потока
func (c *Cli) watchLoop(ctx context.Context, engine *sync.Engine, b *board.Board, mu *gosync.Mutex) error {
	for {
		if ctx.Err() != nil {
			c.io.Println("Connection closed.")
			return nil
		}

		line, err := c.io.ReadInput("> ")
		if err != nil {
			return nil
		}

		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "":
			continue

		case "quit", "exit":
			return nil

		case "show":
			mu.Lock()
			elements := b.Elements()
			mu.Unlock()
			if len(elements) == 0 {
				c.io.Println("(empty board)")
				continue
			}
			for _, el := range elements {
				c.io.Printf("%s  v%d  %s\n", el.ID, el.Version, string(el.Payload))
			}
			continue

		case "add":
			mu.Lock()
			id, addErr := b.Add(json.RawMessage(rest))
			snapshot := b.Elements()
			mu.Unlock()
			if addErr != nil {
				c.io.Printf("error: %v\n", addErr)
				continue
			}
			c.io.Printf("added %s\n", id)
			if err := engine.Edit(ctx, snapshot); err != nil {
				return nil
			}

		case "update":
			id, payload, _ := strings.Cut(rest, " ")
			mu.Lock()
			updErr := b.Update(id, json.RawMessage(payload))
			snapshot := b.Elements()
			mu.Unlock()
			if updErr != nil {
				c.io.Printf("error: %v\n", updErr)
				continue
			}
			if err := engine.Edit(ctx, snapshot); err != nil {
				return nil
			}

		case "del":
			mu.Lock()
			delErr := b.Remove(strings.TrimSpace(rest))
			snapshot := b.Elements()
			mu.Unlock()
			if delErr != nil {
				c.io.Printf("error: %v\n", delErr)
				continue
			}
			if err := engine.Edit(ctx, snapshot); err != nil {
				return nil
			}

		default:
			c.io.Printf("unknown command: %s\n", cmd)
		}
	}
}
