package warranty

import (
	"fmt"
	"time"

	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/patrickmn/go-cache"
)

// StatisticsProvider is implemented by the repository and by the cache that
// wraps it.
type StatisticsProvider interface {
	Statistics(horizonDays int) (*models.WarrantyStatistics, error)
}

// StatisticsSource is the cached surface the handler reads from and
// invalidates after mutations.
type StatisticsSource interface {
	StatisticsProvider
	Invalidate()
}

// CachedStatistics memoizes statistics per horizon. Dashboard polling hits the
// aggregate queries hard while the numbers barely move, so slightly stale
// results are acceptable.
type CachedStatistics struct {
	provider StatisticsProvider
	cache    *cache.Cache
}

func NewCachedStatistics(provider StatisticsProvider, ttl time.Duration) *CachedStatistics {
	return &CachedStatistics{
		provider: provider,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (c *CachedStatistics) Statistics(horizonDays int) (*models.WarrantyStatistics, error) {
	key := fmt.Sprintf("statistics:%d", horizonDays)

	if cached, found := c.cache.Get(key); found {
		return cached.(*models.WarrantyStatistics), nil
	}

	stats, err := c.provider.Statistics(horizonDays)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, stats, cache.DefaultExpiration)
	return stats, nil
}

// Invalidate drops all cached aggregates. Called after mutations when fresh
// numbers matter more than query savings.
func (c *CachedStatistics) Invalidate() {
	c.cache.Flush()
}
