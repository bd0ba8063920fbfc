package auth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/auth"
)

func TestContext(t *testing.T) {
	assert.True(t, auth.Context{Token: "  "}.IsZero())
	assert.False(t, auth.Context{Token: "abc"}.IsZero())
	assert.Equal(t, "Bearer abc", auth.Context{Token: " abc "}.Bearer())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := auth.NewFileStore(path)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, auth.ErrNoSession)

	session := auth.Session{
		Auth:        auth.Context{Token: "secret", Role: "admin"},
		Preferences: auth.Preferences{Operator: "Ada", Station: "gate-2"},
	}
	require.NoError(t, store.Save(ctx, session))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	store := auth.NewRedisStore(rdb, "test-"+uuid.NewString())
	t.Cleanup(func() { _ = store.Clear(ctx) })

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, auth.ErrNoSession)

	session := auth.Session{
		Auth:        auth.Context{Token: "secret", Role: "staff"},
		Preferences: auth.Preferences{Operator: "Grace", Station: "lobby"},
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
}
