package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

func newTestRedisCache(t *testing.T) (*RedisDocumentCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDocumentCache(client, time.Minute), mr
}

func TestRedisDocumentCacheRoundTrip(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()
	doc := testDocument()
	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}

	_, ok := c.Get(ctx, ref)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, doc))
	assert.True(t, mr.Exists("document:listing-1:brochure"))
	assert.Equal(t, time.Minute, mr.TTL("document:listing-1:brochure"))

	got, ok := c.Get(ctx, ref)
	require.True(t, ok)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Prime Retail Investment", got.DocumentData.HeadlineData.Headline)

	require.NoError(t, c.Invalidate(ctx, ref))
	_, ok = c.Get(ctx, ref)
	assert.False(t, ok)
}

func TestRedisDocumentCacheUnavailableIsMiss(t *testing.T) {
	c, mr := newTestRedisCache(t)
	mr.Close()

	_, ok := c.Get(context.Background(), domain.DocumentRef{ListingID: "l", DocumentTypeID: "t"})
	assert.False(t, ok)
	assert.Error(t, c.Ping(context.Background()))
}
