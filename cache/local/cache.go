package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key or member does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type item struct {
	value    string
	expireAt time.Time // zero means no expiry
}

func (it item) expired(now time.Time) bool {
	return !it.expireAt.IsZero() && now.After(it.expireAt)
}

type scored struct {
	member string
	score  float64
}

// LocalCache is an in-process key/value and sorted-set store. It backs
// profile state and the leaderboard when no Redis address is configured.
type LocalCache struct {
	mu     sync.RWMutex
	items  map[string]item
	zsets  map[string][]scored // kept sorted by score descending, then member
	stopGC chan struct{}
	once   sync.Once
}

// NewCache creates a LocalCache and starts the background expiry sweep.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		items:  make(map[string]item),
		zsets:  make(map[string][]scored),
		stopGC: make(chan struct{}),
	}
	go c.sweep(interval)
	return c, nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *LocalCache) Close() {
	c.once.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, it := range c.items {
				if it.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.expired(time.Now()) {
		return "", ErrNotFound
	}
	return it.value, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	it := item{value: value}
	if ttl > 0 {
		it.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
		delete(c.zsets, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	return ok && !it.expired(time.Now()), nil
}

// ZAdd inserts member or replaces its score.
func (c *LocalCache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.zsets[key]
	found := false
	for i := range set {
		if set[i].member == member {
			set[i].score = score
			found = true
			break
		}
	}
	if !found {
		set = append(set, scored{member: member, score: score})
	}
	sort.SliceStable(set, func(a, b int) bool {
		if set[a].score != set[b].score {
			return set[a].score > set[b].score
		}
		return set[a].member > set[b].member
	})
	c.zsets[key] = set
	return nil
}

// ZRevRange returns members from highest to lowest score. stop < 0 means
// "to the end", matching the Redis -1 convention.
func (c *LocalCache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.zsets[key]
	n := int64(len(set))
	if start < 0 {
		start = 0
	}
	if start >= n {
		return nil, nil
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, set[i].member)
	}
	return out, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.zsets[key] {
		if s.member == member {
			return s.score, nil
		}
	}
	return 0, ErrNotFound
}
