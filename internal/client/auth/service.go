package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/drawboard/internal/client/api"
	"github.com/iudanet/drawboard/internal/client/storage"
	"github.com/iudanet/drawboard/internal/validation"
	pkgapi "github.com/iudanet/drawboard/pkg/api"
)

// ErrNotAuthenticated возвращается, когда локальной сессии нет
// или refresh token больше не принимается сервером
var ErrNotAuthenticated = errors.New("not authenticated, run login first")

// Service предоставляет функции авторизации: регистрация, вход,
// хранение сессии и прозрачное обновление истекшего access token
type Service struct {
	apiClient *api.Client
	store     storage.AuthStorage
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store storage.AuthStorage) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
	}
}

// Register регистрирует нового пользователя на сервере.
// Сессия при этом не создается - далее требуется Login.
func (s *Service) Register(ctx context.Context, username, password string) (*pkgapi.RegisterResponse, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return resp, nil
}

// Login выполняет аутентификацию и сохраняет сессию в локальном хранилище
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.saveSession(ctx, username, resp); err != nil {
		return err
	}

	s.apiClient.SetAccessToken(resp.AccessToken)
	return nil
}

// EnsureAuthenticated загружает сохраненную сессию и устанавливает
// access token в API клиент. Истекший access token прозрачно
// обновляется через refresh token.
func (s *Service) EnsureAuthenticated(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// Запас в 30 секунд: токен на грани истечения обновляем заранее
	if time.Now().Unix() >= auth.ExpiresAt-30 {
		resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("session expired: %w", ErrNotAuthenticated)
		}

		if err := s.saveSession(ctx, auth.Username, resp); err != nil {
			return nil, err
		}

		auth, err = s.store.GetAuth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
	}

	s.apiClient.SetAccessToken(auth.AccessToken)
	return auth, nil
}

// Logout отзывает токены на сервере и удаляет локальную сессию.
// Локальная сессия удаляется даже если сервер недоступен.
func (s *Service) Logout(ctx context.Context) error {
	if auth, err := s.EnsureAuthenticated(ctx); err == nil && auth != nil {
		// ошибка сервера не мешает локальному выходу
		_ = s.apiClient.Logout(ctx)
	}

	if err := s.store.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.apiClient.SetAccessToken("")
	return nil
}

// IsAuthenticated проверяет наличие действующей сессии
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.store.IsAuthenticated(ctx)
}

// CurrentAuth возвращает сохраненную сессию без обновления токенов
func (s *Service) CurrentAuth(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return auth, nil
}

func (s *Service) saveSession(ctx context.Context, username string, resp *pkgapi.TokenResponse) error {
	auth := &storage.AuthData{
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
	}

	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
