package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linklet/linklet/internal/model"
)

func TestClickRepository_Insert(t *testing.T) {
	ctx := context.Background()
	links := NewLinkRepository(testDB.Pool)
	clicks := NewClickRepository(testDB.Pool)

	t.Run("appends a click event and fills server fields", func(t *testing.T) {
		defer testDB.Cleanup(ctx)

		link := newLink("clicked", "https://example.com")
		require.NoError(t, links.Create(ctx, link))

		click := &model.ClickEvent{
			LinkID:    link.ID,
			IPAddress: "203.0.113.9",
			UserAgent: "test-agent",
			Referrer:  "https://referrer.example",
			UTM:       model.UTMParams{Source: "newsletter"},
		}
		require.NoError(t, clicks.Insert(ctx, click))
		assert.NotZero(t, click.ID)
		assert.False(t, click.ClickedAt.IsZero())

		var utmSource, country *string
		err := testDB.Pool.QueryRow(ctx,
			"SELECT utm_source, country FROM click_events WHERE id = $1", click.ID).
			Scan(&utmSource, &country)
		require.NoError(t, err)
		require.NotNil(t, utmSource)
		assert.Equal(t, "newsletter", *utmSource)
		assert.Nil(t, country)
	})

	t.Run("empty metadata persists as NULL", func(t *testing.T) {
		defer testDB.Cleanup(ctx)

		link := newLink("anon", "https://example.com")
		require.NoError(t, links.Create(ctx, link))

		click := &model.ClickEvent{LinkID: link.ID}
		require.NoError(t, clicks.Insert(ctx, click))

		var ip, agent *string
		err := testDB.Pool.QueryRow(ctx,
			"SELECT ip_address, user_agent FROM click_events WHERE id = $1", click.ID).
			Scan(&ip, &agent)
		require.NoError(t, err)
		assert.Nil(t, ip)
		assert.Nil(t, agent)
	})

	t.Run("rejects a click for an unknown link", func(t *testing.T) {
		defer testDB.Cleanup(ctx)

		click := &model.ClickEvent{LinkID: newLink("x", "https://example.com").ID}
		assert.Error(t, clicks.Insert(ctx, click))
	})
}
