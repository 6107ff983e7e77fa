package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/domain/domaintest"
	"github.com/aelexs/auth-gateway/internal/gateway/adapter"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
)

func TestMemoryUserStore(t *testing.T) {
	clock := domaintest.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	t.Run("insert then lookup by id and name", func(t *testing.T) {
		store := adapter.NewMemoryUserStore(clock)

		created, err := store.Insert(ctx, app.NewUserRecord{Name: "alice", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.UserID)
		assert.Equal(t, "2025-06-01T12:00:00Z", created.CreatedAt)

		byID, err := store.GetByID(ctx, created.UserID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		byName, err := store.FindByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created, byName)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		store := adapter.NewMemoryUserStore(clock)

		_, err := store.Insert(ctx, app.NewUserRecord{Name: "alice", PasswordHash: "hash"})
		require.NoError(t, err)

		_, err = store.Insert(ctx, app.NewUserRecord{Name: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("missing records return ErrNotFound", func(t *testing.T) {
		store := adapter.NewMemoryUserStore(clock)

		_, err := store.GetByID(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = store.FindByName(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ids are sequential", func(t *testing.T) {
		store := adapter.NewMemoryUserStore(clock)

		a, err := store.Insert(ctx, app.NewUserRecord{Name: "a", PasswordHash: "h"})
		require.NoError(t, err)
		b, err := store.Insert(ctx, app.NewUserRecord{Name: "b", PasswordHash: "h"})
		require.NoError(t, err)

		assert.Equal(t, a.UserID+1, b.UserID)
	})
}
