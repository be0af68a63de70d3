package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/drawboard/pkg/api"
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetAccessToken устанавливает access token для последующих запросов
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/register", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/login", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequestWithToken(ctx, "POST", "/api/v1/auth/refresh", nil, &resp, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает все refresh tokens пользователя на сервере
func (c *Client) Logout(ctx context.Context) error {
	err := c.doRequest(ctx, "POST", "/api/v1/auth/logout", nil, nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// CreateDocument создает новый документ
func (c *Client) CreateDocument(ctx context.Context, req api.CreateDocumentRequest) (*api.DocumentResponse, error) {
	var resp api.DocumentResponse
	err := c.doRequest(ctx, "POST", "/api/v1/documents", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("create document request failed: %w", err)
	}
	return &resp, nil
}

// ListDocuments возвращает документы текущего пользователя
func (c *Client) ListDocuments(ctx context.Context) (*api.DocumentListResponse, error) {
	var resp api.DocumentListResponse
	err := c.doRequest(ctx, "GET", "/api/v1/documents", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list documents request failed: %w", err)
	}
	return &resp, nil
}

// GetDocument получает документ вместе с текущим списком элементов
func (c *Client) GetDocument(ctx context.Context, documentID string) (*api.DocumentResponse, error) {
	var resp api.DocumentResponse
	path := "/api/v1/documents/" + url.PathEscape(documentID)
	err := c.doRequest(ctx, "GET", path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get document request failed: %w", err)
	}
	return &resp, nil
}

// SubmitUpdate отправляет полный снимок элементов документа.
// Возвращает каноничный снимок после применения на сервере.
func (c *Client) SubmitUpdate(ctx context.Context, documentID string, req api.SubmitUpdateRequest) (*api.SubmitUpdateResponse, error) {
	var resp api.SubmitUpdateResponse
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/elements"
	err := c.doRequest(ctx, "POST", path, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("submit update request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос с текущим access token
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	return c.doRequestWithToken(ctx, method, path, body, result, c.accessToken)
}

// doRequestWithToken выполняет HTTP запрос с явно заданным токеном
func (c *Client) doRequestWithToken(ctx context.Context, method, path string, body, result interface{}, token string) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
