package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedCache(shards, ttl int) (*ShardedCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewShardedCache(shards, ttl)
	c.now = clock.Now
	return c, clock
}

// Editors of different listings write their own keys in parallel; each must read back its
// last write.
func TestCacheParallelEditors(t *testing.T) {
	c := NewShardedCache(8, 3600)
	ctx := context.Background()

	const editors, edits = 32, 200
	var wg sync.WaitGroup
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func(listing int) {
			defer wg.Done()
			key := fmt.Sprintf("listing-%d|portfolio|headline", listing)
			for j := 0; j < edits; j++ {
				assert.NoError(t, c.Set(ctx, key, j))
				v, ok := c.Get(ctx, key)
				assert.True(t, ok)
				assert.Equal(t, j, v)
			}
			if listing%2 == 0 {
				assert.NoError(t, c.Delete(ctx, key))
			}
		}(i)
	}

	// readers and the sweeper run alongside the writers
	stop := make(chan struct{})
	var bg sync.WaitGroup
	bg.Add(2)
	go func() {
		defer bg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c.Get(ctx, "listing-0|portfolio|headline")
			}
		}
	}()
	go func() {
		defer bg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = c.CleanExpired(ctx)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(stop)
	bg.Wait()

	assert.Equal(t, editors/2, c.GetStats().TotalItems)
}

func TestCacheWritesRefreshTTL(t *testing.T) {
	c, clock := newClockedCache(4, 60)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "touched", "a"))
	require.NoError(t, c.Set(ctx, "abandoned", "b"))

	clock.Advance(40 * time.Second)
	require.NoError(t, c.Set(ctx, "touched", "a2"))

	clock.Advance(40 * time.Second)
	_, ok := c.Get(ctx, "abandoned")
	assert.False(t, ok, "expired entries are invisible before the sweep")
	assert.Equal(t, 1, func() int {
		n := 0
		for _, s := range c.GetStats().ShardStats {
			n += s.ExpiredCount
		}
		return n
	}())

	require.NoError(t, c.CleanExpired(ctx))
	v, ok := c.Get(ctx, "touched")
	assert.True(t, ok)
	assert.Equal(t, "a2", v)
	assert.Equal(t, 1, c.GetStats().TotalItems)
}

func TestCacheCleanupWorkerCollectsAbandonedDrafts(t *testing.T) {
	c, clock := newClockedCache(4, 1)
	c.sweepEvery = 10 * time.Millisecond
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("abandoned-%d", i), i))
	}
	c.StartCleanupWorker()
	c.StartCleanupWorker()
	defer c.StopCleanupWorker()

	assert.Equal(t, 50, c.GetStats().TotalItems)
	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool {
		return c.GetStats().TotalItems == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCacheStopRunsFinalSweep(t *testing.T) {
	c, clock := newClockedCache(2, 1)
	c.sweepEvery = time.Hour
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1))
	c.StartCleanupWorker()
	clock.Advance(2 * time.Second)
	c.StopCleanupWorker()
	c.StopCleanupWorker()

	assert.Equal(t, 0, c.GetStats().TotalItems)
}

func TestCacheSubscribeReadAfterWrite(t *testing.T) {
	c := NewShardedCache(4, 3600)
	ctx := context.Background()

	var seen []interface{}
	var readBack interface{}
	unsubscribe := c.Subscribe("draft:1", func(key string, value interface{}) {
		seen = append(seen, value)
		readBack, _ = c.Get(ctx, key)
	})

	require.NoError(t, c.Set(ctx, "draft:1", "first"))
	assert.Equal(t, []interface{}{"first"}, seen)
	assert.Equal(t, "first", readBack)

	require.NoError(t, c.Set(ctx, "draft:2", "other key"))
	assert.Len(t, seen, 1)

	require.NoError(t, c.Delete(ctx, "draft:1"))
	assert.Equal(t, []interface{}{"first", nil}, seen)

	unsubscribe()
	unsubscribe()
	require.NoError(t, c.Set(ctx, "draft:1", "second"))
	assert.Len(t, seen, 2)
	assert.Equal(t, 0, c.GetStats().Subscribers)
}

func TestCacheSubscribersAreIndependent(t *testing.T) {
	c := NewShardedCache(1, 3600)
	ctx := context.Background()

	var a, b int
	stopA := c.Subscribe("k", func(string, interface{}) { a++ })
	stopB := c.Subscribe("k", func(string, interface{}) { b++ })
	assert.Equal(t, 2, c.GetStats().Subscribers)

	require.NoError(t, c.Set(ctx, "k", 1))
	stopA()
	require.NoError(t, c.Set(ctx, "k", 2))
	stopB()

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestCacheSetIfAbsent(t *testing.T) {
	c, clock := newClockedCache(4, 60)
	ctx := context.Background()

	stored, err := c.SetIfAbsent(ctx, "k", 1)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = c.SetIfAbsent(ctx, "k", 2)
	require.NoError(t, err)
	assert.False(t, stored)

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, 1, v)

	clock.Advance(2 * time.Minute)
	stored, err = c.SetIfAbsent(ctx, "k", 3)
	require.NoError(t, err)
	assert.True(t, stored, "an expired entry counts as absent")
}

func TestCacheHonoursCancelledContext(t *testing.T) {
	c := NewShardedCache(4, 3600)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "k", 1), context.Canceled)
	_, err := c.SetIfAbsent(ctx, "k", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Delete(ctx, "k"), context.Canceled)
	assert.ErrorIs(t, c.CleanExpired(ctx), context.Canceled)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheShardsSpreadDraftKeys(t *testing.T) {
	c := NewShardedCache(16, 3600)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("listing-%d|portfolio|photo", i), i))
	}

	stats := c.GetStats()
	assert.Equal(t, 16, stats.ShardCount)
	assert.Equal(t, 1000, stats.TotalItems)

	used := 0
	for _, s := range stats.ShardStats {
		if s.ItemCount > 0 {
			used++
		}
	}
	assert.Greater(t, used, 10)
}
