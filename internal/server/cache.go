package server

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AbdouB/dialogue/internal/metrics"
	"github.com/AbdouB/dialogue/internal/models"
)

// DefaultDerivedCacheSize is used when no size is configured
const DefaultDerivedCacheSize = 128

// derivedCache memoizes derived metrics of stored scenarios. Keys embed a
// hash of the scenario payload, so any change to the payload misses even
// when two writes share a timestamp.
type derivedCache struct {
	cache   *lru.Cache[string, *models.DerivedMetrics]
	metrics *Metrics
}

func newDerivedCache(size int, m *Metrics) (*derivedCache, error) {
	if size <= 0 {
		size = DefaultDerivedCacheSize
	}
	cache, err := lru.New[string, *models.DerivedMetrics](size)
	if err != nil {
		return nil, err
	}
	return &derivedCache{cache: cache, metrics: m}, nil
}

// get returns the derived metrics for saved, computing them on a miss.
// Callers must treat the result as read-only.
func (c *derivedCache) get(saved *models.SavedScenario) *models.DerivedMetrics {
	key, ok := cacheKey(saved)
	if !ok {
		c.metrics.cacheLookup(false)
		return metrics.Derive(saved.Scenario)
	}
	if d, ok := c.cache.Get(key); ok {
		c.metrics.cacheLookup(true)
		return d
	}
	c.metrics.cacheLookup(false)
	d := metrics.Derive(saved.Scenario)
	c.cache.Add(key, d)
	return d
}

// cacheKey is the scenario id plus a hash of its payload. Payloads that
// cannot be encoded, such as ones holding NaN, are not cached.
func cacheKey(saved *models.SavedScenario) (string, bool) {
	payload, err := json.Marshal(saved.Scenario)
	if err != nil {
		return "", false
	}
	return saved.ID + "@" + strconv.FormatUint(xxhash.Sum64(payload), 16), true
}

func (c *derivedCache) len() int {
	return c.cache.Len()
}
