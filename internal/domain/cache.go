package domain

import "context"

// Cache defines the interface for keyed in-memory state shared between components
type Cache interface {
	// Get retrieves a value from the cache by key
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value and synchronously notifies subscribers of the key
	Set(ctx context.Context, key string, value interface{}) error

	// SetIfAbsent stores value only when key holds nothing; it reports whether it stored
	SetIfAbsent(ctx context.Context, key string, value interface{}) (bool, error)

	// Delete removes a value from the cache by key
	Delete(ctx context.Context, key string) error

	// Subscribe registers fn for changes of key and returns a function that unregisters it
	Subscribe(key string, fn func(key string, value interface{})) (unsubscribe func())

	// CleanExpired removes all expired items from the cache
	CleanExpired(ctx context.Context) error
}

// DocumentCache caches persisted documents in front of the DocumentStore
type DocumentCache interface {
	Get(ctx context.Context, ref DocumentRef) (*Document, bool)
	Set(ctx context.Context, doc *Document) error
	Invalidate(ctx context.Context, ref DocumentRef) error
}
