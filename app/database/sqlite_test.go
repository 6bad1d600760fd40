package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "relay.db"))
	require.NoError(t, err)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	repo := NewSQLiteRepository(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLiteRepository(t)

	url := "https://example.com/news/1"
	first := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	require.NoError(t, repo.Upsert(ctx, NewRecord(url, first)))
	require.NoError(t, repo.Upsert(ctx, NewRecord(url, second)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, IdentityKey(url))
	require.NoError(t, err)
	assert.True(t, exists)

	sentAt, err := repo.SentAt(ctx, IdentityKey(url))
	require.NoError(t, err)
	require.NotNil(t, sentAt)
	assert.True(t, sentAt.Equal(second), "expected sent_at to be refreshed, got %s", sentAt)
}

func TestSQLiteRepositoryExistsUnknown(t *testing.T) {
	repo := newTestSQLiteRepository(t)

	exists, err := repo.Exists(context.Background(), IdentityKey("https://example.com/never"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteRepositoryDeleteSentBefore(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLiteRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, NewRecord("https://example.com/old", now.Add(-31*24*time.Hour))))
	require.NoError(t, repo.Upsert(ctx, NewRecord("https://example.com/recent", now.Add(-29*24*time.Hour))))

	deleted, err := repo.DeleteSentBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	exists, err := repo.Exists(ctx, IdentityKey("https://example.com/old"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.Exists(ctx, IdentityKey("https://example.com/recent"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunMigrationsTwice(t *testing.T) {
	db, err := NewConnection(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	defer db.Close()

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	version, _, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
