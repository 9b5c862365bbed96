package grid

import (
	"math"
	"sync"
)

type CacheManager[K comparable, V any] interface {
	MaxInCache() int
	Add(key K, value V, cache *sync.Map)
	Access(key K)
}

// Holds the latitude lines of Gaussian grids by resolution, so that mappers for the same grid share
// one computation. Computing the lines of a high resolution grid takes far longer than any lookup.
type LatitudeCache struct {
	lock    sync.Mutex
	cache   *sync.Map // map[int][]float64, but safe for concurrent access/modification
	manager CacheManager[int, []float64]
	compute func(resolution int) []float64
}

func NewLatitudeCache(eviction CacheManager[int, []float64], compute func(resolution int) []float64) *LatitudeCache {
	return &LatitudeCache{
		cache:   &sync.Map{},
		manager: eviction,
		compute: compute,
	}
}

// Returns the latitude lines for the resolution, computing them on first use. The returned slice is
// shared and must not be modified.
func (c *LatitudeCache) Latitudes(resolution int) []float64 {
	c.manager.Access(resolution)
	if lats, ok := c.cache.Load(resolution); ok {
		return lats.([]float64)
	}
	return c.load(resolution)
}

func (c *LatitudeCache) load(resolution int) []float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	// in case multiple mappers get locked trying to load the same resolution
	if lats, ok := c.cache.Load(resolution); ok {
		return lats.([]float64)
	}

	lats := c.compute(resolution)
	c.manager.Add(resolution, lats, c.cache)
	return lats
}

type LfuCacheManager[K comparable, V any] struct {
	lock       sync.RWMutex
	maxInCache int
	stored     int
	usages     *sync.Map
}

func NewLfuCacheManager[K comparable, V any](maxInCache int) *LfuCacheManager[K, V] {
	return &LfuCacheManager[K, V]{maxInCache: maxInCache, usages: &sync.Map{}}
}

func (m *LfuCacheManager[K, V]) Access(key K) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if val, ok := m.usages.Load(key); ok {
		m.usages.Store(key, val.(int)+1)
	}
}

func (m *LfuCacheManager[K, V]) Add(key K, value V, cache *sync.Map) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.stored >= m.maxInCache {
		// find least frequently used to evict
		min := math.MaxInt
		var toEvict K
		found := false
		m.usages.Range(func(key any, val any) bool {
			if val.(int) < min {
				min = val.(int)
				toEvict = key.(K)
				found = true
			}
			return true
		})
		if found {
			m.usages.Delete(toEvict)
			cache.Delete(toEvict)
			m.stored -= 1
		}
	}
	m.stored += 1
	m.usages.Store(key, 1)
	cache.Store(key, value)
}

func (m *LfuCacheManager[K, V]) MaxInCache() int {
	return m.maxInCache
}

// Shared by every Gaussian grid mapper in the process.
var gaussianLatitudes = NewLatitudeCache(NewLfuCacheManager[int, []float64](8), GaussianLatitudes)
