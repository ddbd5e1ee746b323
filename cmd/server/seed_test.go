package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/config"
	"github.com/UkralStul/blog-api/internal/storage/inmemory"
)

func TestFillWithMockData(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()

	require.NoError(t, fillWithMockData(ctx, store, zap.NewNop()))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	comments, err := store.ListComments(ctx)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	// Второй запуск ничего не добавляет.
	require.NoError(t, fillWithMockData(ctx, store, zap.NewNop()))
	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	store, sqlStore, err := openStorage(ctx, config.DatabaseConfig{Driver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Nil(t, sqlStore)

	path := filepath.Join(t.TempDir(), "blog.db")
	store, sqlStore, err = openStorage(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, sqlStore)
	defer sqlStore.Close()

	_, err = sqlStore.Migrate(ctx, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, fillWithMockData(ctx, store, zap.NewNop()))

	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].AuthorName)

	_, _, err = openStorage(ctx, config.DatabaseConfig{Driver: "mongo"}, zap.NewNop())
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	lg, err := newLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, lg)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "console"})
	require.Error(t, err)
}
