package models

import "time"

// User представляет пользователя в системе
type User struct {
	ID           string    `json:"id"`            // UUID пользователя
	Username     string    `json:"username"`      // уникальный username
	PasswordHash string    `json:"password_hash"` // bcrypt хеш пароля
	CreatedAt    time.Time `json:"created_at"`    // время создания
	UpdatedAt    time.Time `json:"updated_at"`    // время последнего обновления
}

// RefreshToken представляет refresh token пользователя
type RefreshToken struct {
	Token     string    `json:"token"`      // значение токена
	UserID    string    `json:"user_id"`    // ID пользователя
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}
