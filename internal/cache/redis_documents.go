package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// RedisDocumentCache caches persisted documents in Redis so replicas share one read path
type RedisDocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDocumentCache creates a document cache over an existing client
func NewRedisDocumentCache(client *redis.Client, ttl time.Duration) *RedisDocumentCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisDocumentCache{client: client, ttl: ttl}
}

func documentKey(ref domain.DocumentRef) string {
	return fmt.Sprintf("document:%s:%s", ref.ListingID, ref.DocumentTypeID)
}

// Get returns the cached document; any Redis error is treated as a miss
func (c *RedisDocumentCache) Get(ctx context.Context, ref domain.DocumentRef) (*domain.Document, bool) {
	raw, err := c.client.Get(ctx, documentKey(ref)).Bytes()
	if err != nil {
		return nil, false
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// Set stores the document under its (listing, document type) key
func (c *RedisDocumentCache) Set(ctx context.Context, doc *domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}
	if err := c.client.Set(ctx, documentKey(ref), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes the cached document
func (c *RedisDocumentCache) Invalidate(ctx context.Context, ref domain.DocumentRef) error {
	if err := c.client.Del(ctx, documentKey(ref)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping tests the Redis connection
func (c *RedisDocumentCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisDocumentCache) Close() error {
	return c.client.Close()
}

var _ domain.DocumentCache = (*RedisDocumentCache)(nil)
