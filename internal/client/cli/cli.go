package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/drawboard/internal/client/api"
	"github.com/iudanet/drawboard/internal/client/auth"
	"github.com/iudanet/drawboard/internal/client/iocli"
	"github.com/iudanet/drawboard/internal/client/storage"
)

// Cli связывает команды клиента с API, сервисом авторизации
// и локальным хранилищем
type Cli struct {
	io          iocli.IO
	apiClient   *api.Client
	authService *auth.Service
	boards      storage.BoardStorage
	metadata    storage.MetadataStorage
}

// New создает CLI с переданными зависимостями
func New(io iocli.IO, apiClient *api.Client, authService *auth.Service, boards storage.BoardStorage, metadata storage.MetadataStorage) *Cli {
	return &Cli{
		io:          io,
		apiClient:   apiClient,
		authService: authService,
		boards:      boards,
		metadata:    metadata,
	}
}

// Run выполняет команду
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "create":
		return c.runCreate(ctx, args)
	case "list":
		return c.runList(ctx)
	case "watch":
		return c.runWatch(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage выводит справку по командам
func PrintUsage() {
	fmt.Println("Drawboard Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  drawboard [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version       Show version information")
	fmt.Println("  --server URL    Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH       Path to local database (default: drawboard-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register              Register new user")
	fmt.Println("  login                 Login to server")
	fmt.Println("  logout                Logout from server")
	fmt.Println("  status                Show authentication status")
	fmt.Println("  create <name>         Create a new board")
	fmt.Println("  list                  List your boards")
	fmt.Println("  watch <board-id>      Open a board and edit it live")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  drawboard register")
	fmt.Println("  drawboard login")
	fmt.Println("  drawboard create 'Team whiteboard'")
	fmt.Println("  drawboard watch b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  drawboard --server https://example.com login")
}
