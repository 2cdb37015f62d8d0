package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

const (
	defaultShardCount = 16
	defaultTTL        = 2 * time.Hour
	defaultSweepEvery = time.Minute
	sweepTimeout      = 30 * time.Second
	finalSweepTimeout = 5 * time.Second
)

// entry is one stored value. Every write refreshes expiresAt, so only drafts nobody
// touches age out.
type entry struct {
	value     interface{}
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// shard owns a slice of the key space behind its own lock
type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type subscriber struct {
	id int64
	fn func(key string, value interface{})
}

// ShardedCache is a concurrent keyed store with per-key change subscriptions.
// Subscribers run on the writer's goroutine once the new value is visible to Get,
// which gives every reader read-after-write consistency.
type ShardedCache struct {
	shards     []*shard
	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	subsMu sync.RWMutex
	subs   map[string][]subscriber
	nextID int64

	sweeperMu   sync.Mutex
	sweeperStop chan struct{}
	sweeperDone sync.WaitGroup
}

// NewShardedCache creates a cache with shardCount shards; ttl is in seconds
func NewShardedCache(shardCount int, ttl int) *ShardedCache {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	life := time.Duration(ttl) * time.Second
	if life <= 0 {
		life = defaultTTL
	}

	c := &ShardedCache{
		shards:     make([]*shard, shardCount),
		ttl:        life,
		sweepEvery: defaultSweepEvery,
		now:        time.Now,
		subs:       make(map[string][]subscriber),
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return c
}

func (c *ShardedCache) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns the live value stored under key
func (c *ShardedCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores value and notifies subscribers before returning
func (c *ShardedCache) Set(ctx context.Context, key string, value interface{}) error {
	_, err := c.store(ctx, key, value, true)
	return err
}

// SetIfAbsent stores value only when key is missing or expired
func (c *ShardedCache) SetIfAbsent(ctx context.Context, key string, value interface{}) (bool, error) {
	return c.store(ctx, key, value, false)
}

func (c *ShardedCache) store(ctx context.Context, key string, value interface{}, overwrite bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s := c.shardFor(key)
	now := c.now()
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !overwrite && !e.expired(now) {
		s.mu.Unlock()
		return false, nil
	}
	s.entries[key] = &entry{value: value, expiresAt: now.Add(c.ttl)}
	s.mu.Unlock()

	c.notify(key, value)
	return true, nil
}

// Delete removes key; subscribers see a nil value
func (c *ShardedCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	c.notify(key, nil)
	return nil
}

// Subscribe registers fn for changes of key. The returned function is idempotent.
func (c *ShardedCache) Subscribe(key string, fn func(key string, value interface{})) func() {
	c.subsMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs[key] = append(c.subs[key], subscriber{id: id, fn: fn})
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(key, id) })
	}
}

func (c *ShardedCache) unsubscribe(key string, id int64) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	list := c.subs[key]
	for i, s := range list {
		if s.id == id {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.subs, key)
		return
	}
	c.subs[key] = list
}

// notify runs outside shard locks so subscribers may read the cache
func (c *ShardedCache) notify(key string, value interface{}) {
	c.subsMu.RLock()
	list := append([]subscriber(nil), c.subs[key]...)
	c.subsMu.RUnlock()

	for _, s := range list {
		s.fn(key, value)
	}
}

// CleanExpired drops every expired entry
func (c *ShardedCache) CleanExpired(ctx context.Context) error {
	now := c.now()
	for _, s := range c.shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		for key, e := range s.entries {
			if e.expired(now) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
	return nil
}

// StartCleanupWorker starts the background sweeper of abandoned drafts. Repeated calls are no-ops.
func (c *ShardedCache) StartCleanupWorker() {
	c.sweeperMu.Lock()
	defer c.sweeperMu.Unlock()
	if c.sweeperStop != nil {
		return
	}

	stop := make(chan struct{})
	c.sweeperStop = stop
	c.sweeperDone.Add(1)
	go c.sweep(stop, c.sweepEvery)
}

// StopCleanupWorker stops the sweeper after one final pass
func (c *ShardedCache) StopCleanupWorker() {
	c.sweeperMu.Lock()
	defer c.sweeperMu.Unlock()
	if c.sweeperStop == nil {
		return
	}

	close(c.sweeperStop)
	c.sweeperDone.Wait()
	c.sweeperStop = nil
}

func (c *ShardedCache) sweep(stop <-chan struct{}, every time.Duration) {
	defer c.sweeperDone.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	pass := func(timeout time.Duration) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = c.CleanExpired(ctx)
	}

	for {
		select {
		case <-stop:
			pass(finalSweepTimeout)
			return
		case <-ticker.C:
			pass(sweepTimeout)
		}
	}
}

// GetStats reports entry counts per shard and the number of live subscriptions
func (c *ShardedCache) GetStats() CacheStats {
	stats := CacheStats{
		ShardCount: len(c.shards),
		ShardStats: make([]ShardStat, len(c.shards)),
	}

	now := c.now()
	for i, s := range c.shards {
		st := ShardStat{Index: i}
		s.mu.RLock()
		st.ItemCount = len(s.entries)
		for _, e := range s.entries {
			if e.expired(now) {
				st.ExpiredCount++
			}
		}
		s.mu.RUnlock()

		stats.ShardStats[i] = st
		stats.TotalItems += st.ItemCount
	}

	c.subsMu.RLock()
	for _, list := range c.subs {
		stats.Subscribers += len(list)
	}
	c.subsMu.RUnlock()

	return stats
}

// CacheStats is a point-in-time view of the cache
type CacheStats struct {
	ShardCount  int
	TotalItems  int
	Subscribers int
	ShardStats  []ShardStat
}

// ShardStat describes one shard
type ShardStat struct {
	Index        int
	ItemCount    int
	ExpiredCount int
}

var _ domain.Cache = (*ShardedCache)(nil)
