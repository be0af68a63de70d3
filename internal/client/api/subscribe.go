package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/iudanet/drawboard/pkg/api"
)

// Subscription представляет открытую websocket подписку на документ.
// Первая запись из Recv несет токен подписчика в поле Subscriber.
type Subscription struct {
	conn *websocket.Conn
}

// Subscribe открывает поток обновлений документа.
// Соединение авторизуется текущим access token клиента.
func (c *Client) Subscribe(ctx context.Context, documentID string) (*Subscription, error) {
	wsURL, err := c.subscribeURL(documentID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.accessToken != "" {
		header.Set("Authorization", "Bearer "+c.accessToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}

	return &Subscription{conn: conn}, nil
}

// Recv блокируется до следующей записи потока.
// Штатное закрытие сервером возвращается как ошибка websocket.CloseError.
func (s *Subscription) Recv() (*api.UpdateRecord, error) {
	var rec api.UpdateRecord
	if err := s.conn.ReadJSON(&rec); err != nil {
		return nil, fmt.Errorf("read update record: %w", err)
	}
	return &rec, nil
}

// Close закрывает подписку
func (s *Subscription) Close() error {
	return s.conn.Close()
}

// subscribeURL строит ws:// URL подписки из базового http:// URL
func (c *Client) subscribeURL(documentID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/documents/" + url.PathEscape(documentID) + "/subscribe"
	return u.String(), nil
}
