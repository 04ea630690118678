package market

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// PoolCache looks up resolved pool keys by pool or market id. Absence is
// not an error; the pipeline skips pools it cannot resolve.
type PoolCache interface {
	Get(id string) (PoolKeys, bool)
}

// AllowList answers whether a mint has been explicitly approved for
// trading. When allow-list mode is on, listed mints skip the quality
// gate and everything else is skipped outright before admission.
type AllowList interface {
	IsListed(mint string) bool
}

// MemoryPoolCache is the in-process PoolCache fed by the discovery feed.
type MemoryPoolCache struct {
	mu    sync.RWMutex
	byID  map[string]PoolKeys
	limit int
}

// NewMemoryPoolCache creates a cache bounded to limit entries. New pools
// arrive continuously, so unbounded growth is a leak.
func NewMemoryPoolCache(limit int) *MemoryPoolCache {
	return &MemoryPoolCache{
		byID:  make(map[string]PoolKeys),
		limit: limit,
	}
}

// Put stores keys under the pool id, the market id and the base mint, so
// both the buy path (pool discovery) and the sell path (balance change)
// can resolve them.
func (c *MemoryPoolCache) Put(keys PoolKeys) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limit > 0 && len(c.byID) >= c.limit*3 {
		// Drop everything rather than track LRU order; stale pools are
		// re-resolvable from chain and this cache only serves in-flight
		// pipelines.
		c.byID = make(map[string]PoolKeys)
		log.Debug().Msg("pool cache reset at capacity")
	}

	c.byID[keys.PoolID] = keys
	c.byID[keys.MarketID] = keys
	c.byID[keys.BaseMint] = keys
}

// Get implements PoolCache.
func (c *MemoryPoolCache) Get(id string) (PoolKeys, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys, ok := c.byID[id]
	return keys, ok
}

// StaticAllowList is an AllowList backed by a fixed set of mints, loaded
// once at startup from configuration.
type StaticAllowList struct {
	mints map[string]struct{}
}

// NewStaticAllowList parses a comma-separated mint list.
func NewStaticAllowList(raw string) *StaticAllowList {
	l := &StaticAllowList{mints: make(map[string]struct{})}
	for _, m := range strings.Split(raw, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			l.mints[m] = struct{}{}
		}
	}
	return l
}

// IsListed implements AllowList.
func (l *StaticAllowList) IsListed(mint string) bool {
	_, ok := l.mints[mint]
	return ok
}

// Size returns the number of listed mints.
func (l *StaticAllowList) Size() int {
	return len(l.mints)
}
