package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/drawboard/internal/models"
	"github.com/iudanet/drawboard/internal/server/storage"
)

func TestStorage_RefreshTokenLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, s)

	token := &models.RefreshToken{
		Token:     "refresh-token-value",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveRefreshToken(ctx, token))

	got, err := s.GetRefreshToken(ctx, "refresh-token-value")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, s.DeleteRefreshToken(ctx, "refresh-token-value"))

	_, err = s.GetRefreshToken(ctx, "refresh-token-value")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	err = s.DeleteRefreshToken(ctx, "refresh-token-value")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestStorage_DeleteUserTokens(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, s)

	for _, value := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
			Token:     value,
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
			CreatedAt: time.Now().UTC(),
		}))
	}

	deleted, err := s.DeleteUserTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestStorage_DeleteExpiredTokens(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, s)

	require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:     "expired",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour).UTC(),
		CreatedAt: time.Now().Add(-2 * time.Hour).UTC(),
	}))
	require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:     "valid",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
		CreatedAt: time.Now().UTC(),
	}))

	deleted, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetRefreshToken(ctx, "valid")
	assert.NoError(t, err)
}
