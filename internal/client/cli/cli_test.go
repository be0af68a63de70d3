package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/drawboard/internal/client/api"
	"github.com/iudanet/drawboard/internal/client/auth"
	"github.com/iudanet/drawboard/internal/client/iocli"
	"github.com/iudanet/drawboard/internal/client/storage"
	pkgapi "github.com/iudanet/drawboard/pkg/api"
)

// memAuthStore хранит сессию в памяти для тестов CLI
type memAuthStore struct {
	auth *storage.AuthData
}

func (m *memAuthStore) SaveAuth(_ context.Context, a *storage.AuthData) error {
	m.auth = a
	return nil
}

func (m *memAuthStore) GetAuth(_ context.Context) (*storage.AuthData, error) {
	if m.auth == nil {
		return nil, storage.ErrAuthNotFound
	}
	return m.auth, nil
}

func (m *memAuthStore) DeleteAuth(_ context.Context) error {
	if m.auth == nil {
		return storage.ErrAuthNotFound
	}
	m.auth = nil
	return nil
}

func (m *memAuthStore) IsAuthenticated(_ context.Context) (bool, error) {
	if m.auth == nil {
		return false, nil
	}
	return time.Now().Unix() < m.auth.ExpiresAt, nil
}

// recordingIO собирает весь вывод CLI и отдает заранее заданные ответы на ввод
type recordingIO struct {
	*iocli.IOMock
	output    strings.Builder
	inputs    []string
	passwords []string
}

func newRecordingIO(inputs, passwords []string) *recordingIO {
	rec := &recordingIO{inputs: inputs, passwords: passwords}
	rec.IOMock = &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			rec.output.WriteString(fmt.Sprintln(a...))
		},
		PrintfFunc: func(format string, a ...any) {
			fmt.Fprintf(&rec.output, format, a...)
		},
		ReadInputFunc: func(_ string) (string, error) {
			if len(rec.inputs) == 0 {
				return "", fmt.Errorf("no more inputs")
			}
			next := rec.inputs[0]
			rec.inputs = rec.inputs[1:]
			return next, nil
		},
		ReadPasswordFunc: func(_ string) (string, error) {
			if len(rec.passwords) == 0 {
				return "", fmt.Errorf("no more passwords")
			}
			next := rec.passwords[0]
			rec.passwords = rec.passwords[1:]
			return next, nil
		},
		WriteFunc: func(p []byte) (int, error) {
			return rec.output.Write(p)
		},
	}
	return rec
}

func activeSession() *storage.AuthData {
	return &storage.AuthData{
		Username:     "alice",
		UserID:       "user-1",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func newTestCli(serverURL string, store *memAuthStore, io iocli.IO) *Cli {
	client := api.NewClient(serverURL)
	return New(io, client, auth.NewService(client, store), nil, nil)
}

func TestRunRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/register", r.URL.Path)

		var req pkgapi.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(pkgapi.RegisterResponse{
			UserID:  "user-1",
			Message: "user registered",
		})
	}))
	defer server.Close()

	io := newRecordingIO([]string{"alice"}, []string{"password123", "password123"})
	cli := newTestCli(server.URL, &memAuthStore{}, io)

	err := cli.Run(context.Background(), "register", nil)
	require.NoError(t, err)
	assert.Contains(t, io.output.String(), "User ID: user-1")
}

func TestRunRegisterPasswordMismatch(t *testing.T) {
	io := newRecordingIO([]string{"alice"}, []string{"password123", "different"})
	cli := newTestCli("http://localhost:0", &memAuthStore{}, io)

	err := cli.Run(context.Background(), "register", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

func TestRunLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.TokenResponse{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	store := &memAuthStore{}
	io := newRecordingIO([]string{"alice"}, []string{"password123"})
	cli := newTestCli(server.URL, store, io)

	err := cli.Run(context.Background(), "login", nil)
	require.NoError(t, err)

	require.NotNil(t, store.auth)
	assert.Equal(t, "alice", store.auth.Username)
	assert.Equal(t, "access-token", store.auth.AccessToken)
	assert.Contains(t, io.output.String(), "Login successful")
}

func TestRunStatus(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		io := newRecordingIO(nil, nil)
		cli := newTestCli("http://localhost:0", &memAuthStore{auth: activeSession()}, io)

		require.NoError(t, cli.Run(context.Background(), "status", nil))
		assert.Contains(t, io.output.String(), "Status: Authenticated")
		assert.Contains(t, io.output.String(), "Username: alice")
	})

	t.Run("not authenticated", func(t *testing.T) {
		io := newRecordingIO(nil, nil)
		cli := newTestCli("http://localhost:0", &memAuthStore{}, io)

		require.NoError(t, cli.Run(context.Background(), "status", nil))
		assert.Contains(t, io.output.String(), "Not authenticated")
	})
}

func TestRunCreate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents", r.URL.Path)
		require.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))

		var req pkgapi.CreateDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Team board", req.Name)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(pkgapi.DocumentResponse{
			ID:   "doc-1",
			Name: req.Name,
		})
	}))
	defer server.Close()

	io := newRecordingIO(nil, nil)
	cli := newTestCli(server.URL, &memAuthStore{auth: activeSession()}, io)

	err := cli.Run(context.Background(), "create", []string{"Team", "board"})
	require.NoError(t, err)
	assert.Contains(t, io.output.String(), "ID:   doc-1")
}

func TestRunCreateRequiresAuth(t *testing.T) {
	io := newRecordingIO([]string{"Board"}, nil)
	cli := newTestCli("http://localhost:0", &memAuthStore{}, io)

	err := cli.Run(context.Background(), "create", []string{"Board"})
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestRunList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.DocumentListResponse{
			Documents: []pkgapi.DocumentResponse{
				{ID: "doc-1", Name: "First board", UpdatedAt: time.Now()},
				{ID: "doc-2", Name: "Second board", UpdatedAt: time.Now()},
			},
		})
	}))
	defer server.Close()

	io := newRecordingIO(nil, nil)
	cli := newTestCli(server.URL, &memAuthStore{auth: activeSession()}, io)

	require.NoError(t, cli.Run(context.Background(), "list", nil))
	assert.Contains(t, io.output.String(), "doc-1")
	assert.Contains(t, io.output.String(), "Second board")
}

func TestRunListEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.DocumentListResponse{})
	}))
	defer server.Close()

	io := newRecordingIO(nil, nil)
	cli := newTestCli(server.URL, &memAuthStore{auth: activeSession()}, io)

	require.NoError(t, cli.Run(context.Background(), "list", nil))
	assert.Contains(t, io.output.String(), "No boards yet")
}

func TestRunLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := &memAuthStore{auth: activeSession()}
	io := newRecordingIO(nil, nil)
	cli := newTestCli(server.URL, store, io)

	require.NoError(t, cli.Run(context.Background(), "logout", nil))
	assert.Nil(t, store.auth)
	assert.Contains(t, io.output.String(), "Logout successful")
}

func TestRunUnknownCommand(t *testing.T) {
	io := newRecordingIO(nil, nil)
	cli := newTestCli("http://localhost:0", &memAuthStore{}, io)

	err := cli.Run(context.Background(), "frobnicate", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRunWatchRequiresBoardID(t *testing.T) {
	io := newRecordingIO(nil, nil)
	cli := newTestCli("http://localhost:0", &memAuthStore{auth: activeSession()}, io)

	err := cli.Run(context.Background(), "watch", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: drawboard watch")
}
