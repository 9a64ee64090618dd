package simcache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spiffler33/Profiler-sub006/internal/simulation"
)

// Entry is one cached simulation result.
type Entry struct {
	Fingerprint  string
	Result       *simulation.ProbabilityResult
	CreatedAt    time.Time
	ParamVersion int64
}

// Stats is a read-only snapshot of the cache counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache memoizes probability results by input fingerprint. It is an
// injectable object with an explicit lifecycle (construct, use,
// Clear), not process-global state, so tests run with isolated
// caches. All methods are safe for concurrent use.
type Cache struct {
	logger  *zap.Logger
	maxSize int
	metrics *Metrics

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	flight singleflight.Group
}

// NewCache creates a cache bounded to maxSize entries. metrics may be
// nil when Prometheus reporting is not wanted.
func NewCache(logger *zap.Logger, maxSize int, metrics *Metrics) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{
		logger:  logger,
		maxSize: maxSize,
		metrics: metrics,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the cached result for fingerprint, if present.
func (c *Cache) Get(fingerprint string) (*simulation.ProbabilityResult, bool) {
	result, ok := c.lookup(fingerprint)
	if !ok {
		c.misses.Add(1)
		c.metrics.incMiss()
		return nil, false
	}

	c.hits.Add(1)
	c.metrics.incHit()
	return result, true
}

// lookup reads and touches an entry without moving the hit/miss
// counters. Internal re-checks use it so one logical request counts
// at most once.
func (c *Cache) lookup(fingerprint string) (*simulation.ProbabilityResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*Entry).Result, true
}

// Put stores a result under fingerprint, evicting the least recently
// used entry when the cache is full.
func (c *Cache) Put(fingerprint string, result *simulation.ProbabilityResult, paramVersion int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		elem.Value.(*Entry).Result = result
		c.lru.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		c.evictions.Add(1)
		c.metrics.incEviction()
	}

	entry := &Entry{
		Fingerprint:  fingerprint,
		Result:       result,
		CreatedAt:    time.Now(),
		ParamVersion: paramVersion,
	}
	c.entries[fingerprint] = c.lru.PushFront(entry)
	c.metrics.setSize(len(c.entries))
}

// GetOrCompute returns the cached result for fingerprint, computing
// and storing it via compute on a miss. Concurrent callers for the
// same fingerprint share a single in-flight computation: exactly one
// simulation runs, every caller receives its result. A failed compute
// is not cached.
func (c *Cache) GetOrCompute(fingerprint string, paramVersion int64, compute func() (*simulation.ProbabilityResult, error)) (*simulation.ProbabilityResult, error) {
	if result, ok := c.Get(fingerprint); ok {
		return result, nil
	}

	v, err, _ := c.flight.Do(fingerprint, func() (interface{}, error) {
		// Another flight may have populated the entry between our
		// miss and claiming the key. The caller's Get already counted
		// this request, so the re-check stays off the counters.
		if result, ok := c.lookup(fingerprint); ok {
			return result, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(fingerprint, result, paramVersion)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*simulation.ProbabilityResult), nil
}

// Invalidate removes the entry with the exact given key, or every
// entry matching a trailing-'*' pattern. Returns the number removed.
func (c *Cache) Invalidate(patternOrKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.entries {
		if matchPattern(key, patternOrKey) {
			c.removeLocked(elem)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("cache entries invalidated",
			zap.String("pattern", patternOrKey),
			zap.Int("removed", removed),
		)
		c.metrics.setSize(len(c.entries))
	}
	return removed
}

// Clear removes all entries and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.metrics.setSize(0)
}

// Size returns the current entry count.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the running counters without mutating
// them.
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		Size:      c.Size(),
		HitRate:   hitRate,
	}
}

// removeLocked unlinks an element; caller holds c.mu.
func (c *Cache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*Entry)
	delete(c.entries, entry.Fingerprint)
	c.lru.Remove(elem)
}
