package pipeline

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/go-logr/logr"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/stage"
)

// Instance is one memoized stage. Pipelines hold instances strongly; the
// cache holds recently used ones strongly and every live one weakly.
type Instance struct {
	Signature Signature
	Stage     stage.Stage
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// MaxEntries bounds strong retention. Defaults to
	// config.DefaultCacheMaxEntries.
	MaxEntries int
	// Logger defaults to a discarding logger.
	Logger logr.Logger
	// Metrics may be nil.
	Metrics *CacheMetrics
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Strong        int
	Live          int
	Hits          uint64
	Misses        uint64
	Revived       uint64
	Constructions uint64
	Failures      uint64
}

// Cache maps signatures to stage instances. Construction runs at most once
// per signature at a time, and failures are never stored. Safe for
// concurrent use.
type Cache struct {
	log     logr.Logger
	metrics *CacheMetrics

	mu     sync.Mutex
	strong *simplelru.LRU[string, *Instance]
	index  map[string]weak.Pointer[Instance]
	gen    uint64

	group singleflight.Group

	hits, misses, revived, constructions, failures atomic.Uint64
}

// NewCache returns an empty cache.
func NewCache(opts CacheOptions) *Cache {
	size := opts.MaxEntries
	if size < 1 {
		size = config.DefaultCacheMaxEntries
	}
	if opts.Metrics == nil {
		opts.Metrics = NewCacheMetrics()
	}
	c := &Cache{
		log:     opts.Logger,
		metrics: opts.Metrics,
		index:   map[string]weak.Pointer[Instance]{},
	}
	strong, err := simplelru.NewLRU[string, *Instance](size, func(key string, _ *Instance) {
		c.log.V(2).Info("stage demoted to weak retention", "signature", key)
	})
	if err != nil {
		panic(err)
	}
	c.strong = strong
	return c
}

// GetOrCreate returns the instance for sig, calling construct on a miss.
// Concurrent callers for the same signature share one construction.
func (c *Cache) GetOrCreate(sig Signature, construct func() (stage.Stage, error)) (*Instance, error) {
	key := sig.String()
	if inst := c.lookup(key, true); inst != nil {
		return inst, nil
	}
	c.misses.Add(1)
	c.metrics.ObserveLookup(lookupMiss)
	v, err, _ := c.group.Do(key, func() (any, error) {
		// another caller may have finished between lookup and Do
		if inst := c.lookup(key, false); inst != nil {
			return inst, nil
		}
		st, err := construct()
		c.constructions.Add(1)
		c.metrics.ObserveConstruction(err)
		if err != nil {
			c.failures.Add(1)
			c.log.V(1).Info("stage construction failed", "signature", key, "error", err.Error())
			return nil, err
		}
		inst := &Instance{Signature: sig, Stage: st}
		c.mu.Lock()
		c.strong.Add(key, inst)
		c.index[key] = weak.Make(inst)
		n := len(c.index)
		c.mu.Unlock()
		c.metrics.SetEntries(n)
		c.log.V(2).Info("stage constructed", "signature", key)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}

// lookup checks the strong tier, then revives a weakly held instance.
func (c *Cache) lookup(key string, count bool) *Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inst, ok := c.strong.Get(key); ok {
		if count {
			c.hits.Add(1)
			c.metrics.ObserveLookup(lookupHit)
		}
		return inst
	}
	wp, ok := c.index[key]
	if !ok {
		return nil
	}
	inst := wp.Value()
	if inst == nil {
		delete(c.index, key)
		return nil
	}
	c.strong.Add(key, inst)
	if count {
		c.revived.Add(1)
		c.metrics.ObserveLookup(lookupRevived)
	}
	return inst
}

// Prune drops index entries whose instance has been collected and returns
// how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	removed := 0
	for key, wp := range c.index {
		if wp.Value() == nil {
			delete(c.index, key)
			removed++
		}
	}
	n := len(c.index)
	c.mu.Unlock()
	c.metrics.SetEntries(n)
	if removed > 0 {
		c.log.V(1).Info("stage cache pruned", "removed", removed, "remaining", n)
	}
	return removed
}

// Clear empties both tiers. Pipelines built earlier keep their instances.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.strong.Purge()
	c.index = map[string]weak.Pointer[Instance]{}
	c.gen++
	c.mu.Unlock()
	c.metrics.SetEntries(0)
	c.log.V(1).Info("stage cache cleared")
}

// Len returns the number of indexed instances that are still live.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, wp := range c.index {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Strong:        c.strongLen(),
		Live:          c.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Revived:       c.revived.Load(),
		Constructions: c.constructions.Load(),
		Failures:      c.failures.Load(),
	}
}

func (c *Cache) strongLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strong.Len()
}

// generation changes on every Clear.
func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
