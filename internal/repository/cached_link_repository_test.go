package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedLinkRepository_Lookup(t *testing.T) {
	ctx := context.Background()
	db := NewLinkRepository(testDB.Pool)

	t.Run("populates the cache on miss", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		require.NoError(t, db.Create(ctx, newLink("warm", "https://example.com")))

		got, err := repo.Lookup(ctx, "warm")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)

		exists, err := testCache.Client.Exists(ctx, "link:warm").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("serves the cached copy without touching the database", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		require.NoError(t, db.Create(ctx, newLink("hot", "https://example.com")))
		_, err := repo.Lookup(ctx, "hot")
		require.NoError(t, err)

		// Mutate the row behind the cache; a cached read must not see it.
		_, err = testDB.Pool.Exec(ctx, "UPDATE links SET original_url = 'https://other.example' WHERE short_code = 'hot'")
		require.NoError(t, err)

		got, err := repo.Lookup(ctx, "hot")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)
	})

	t.Run("a protected link stays protected on a cache hit", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		hash := "deadbeef"
		link := newLink("gated", "https://example.com/hidden")
		link.PasswordHash = &hash
		require.NoError(t, db.Create(ctx, link))

		// Warm the cache, then mutate the row behind it so the second
		// read provably comes from the cache.
		first, err := repo.Lookup(ctx, "gated")
		require.NoError(t, err)
		require.True(t, first.Protected())

		_, err = testDB.Pool.Exec(ctx, "UPDATE links SET password_hash = NULL WHERE short_code = 'gated'")
		require.NoError(t, err)

		second, err := repo.Lookup(ctx, "gated")
		require.NoError(t, err)
		require.True(t, second.Protected())
		assert.Equal(t, hash, *second.PasswordHash)
	})

	t.Run("a cached entry cannot outlive its link expiry", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		soon := time.Now().Add(150 * time.Millisecond)
		link := newLink("shortlived", "https://example.com")
		link.ExpiresAt = &soon
		require.NoError(t, db.Create(ctx, link))

		_, err := repo.Lookup(ctx, "shortlived")
		require.NoError(t, err)

		time.Sleep(250 * time.Millisecond)

		_, err = repo.Lookup(ctx, "shortlived")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update invalidates the cached entry", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		require.NoError(t, db.Create(ctx, newLink("edit", "https://example.com/old")))
		got, err := repo.Lookup(ctx, "edit")
		require.NoError(t, err)

		got.OriginalURL = "https://example.com/new"
		require.NoError(t, repo.Update(ctx, got))

		fresh, err := repo.Lookup(ctx, "edit")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/new", fresh.OriginalURL)
	})

	t.Run("deactivate invalidates the cached entry", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		require.NoError(t, db.Create(ctx, newLink("gone", "https://example.com")))
		_, err := repo.Lookup(ctx, "gone")
		require.NoError(t, err)

		require.NoError(t, repo.Deactivate(ctx, "gone"))

		_, err = repo.Lookup(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nil cache degrades to database reads", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, nil, time.Minute)

		require.NoError(t, db.Create(ctx, newLink("plain", "https://example.com")))

		got, err := repo.Lookup(ctx, "plain")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)

		_, err = repo.Lookup(ctx, "nothere")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("owner reads bypass the cache for a live click count", func(t *testing.T) {
		defer testDB.Cleanup(ctx)
		defer testCache.Cleanup(ctx)
		repo := NewCachedLinkRepository(db, testCache.Client, time.Minute)

		link := newLink("counted", "https://example.com")
		require.NoError(t, db.Create(ctx, link))
		_, err := repo.Lookup(ctx, "counted")
		require.NoError(t, err)

		require.NoError(t, repo.IncrementClickCount(ctx, link.ID))

		got, err := repo.GetByCode(ctx, "counted")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ClickCount)
	})
}
