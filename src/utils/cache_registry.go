package utils

import (
	"fmt"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/models"
)

const (
	CachePrices  = "prices"
	CacheNews    = "news"
	CacheInsight = "insight"
)

// ManagedCache is the type-erased view of a TTLCache used for admin routes.
type ManagedCache interface {
	Name() string
	Clear()
	Len() int
	Stats() CacheStats
	Close()
}

// -----------------------------------------------------------------------------
// CacheRegistry owns the three per-category caches.
// -----------------------------------------------------------------------------

type CacheRegistry struct {
	Prices  *TTLCache[models.MPriceQuoteSet]
	News    *TTLCache[models.MNewsItemSet]
	Insight *TTLCache[models.MInsight]
}

// -----------------------------------------------------------------------------

func NewCacheRegistry(cfg models.MCacheConfig, opts ...CacheOption) *CacheRegistry {
	return &CacheRegistry{
		Prices: NewTTLCache[models.MPriceQuoteSet](CachePrices,
			seconds(cfg.Prices.TTLSeconds), seconds(cfg.Prices.CheckPeriodSeconds), opts...),
		News: NewTTLCache[models.MNewsItemSet](CacheNews,
			seconds(cfg.News.TTLSeconds), seconds(cfg.News.CheckPeriodSeconds), opts...),
		Insight: NewTTLCache[models.MInsight](CacheInsight,
			seconds(cfg.Insight.TTLSeconds), seconds(cfg.Insight.CheckPeriodSeconds), opts...),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// -----------------------------------------------------------------------------

func (r *CacheRegistry) all() []ManagedCache {
	return []ManagedCache{r.Prices, r.News, r.Insight}
}

// -----------------------------------------------------------------------------

// Stats reports every cache keyed by name.
func (r *CacheRegistry) Stats() map[string]CacheStats {
	out := make(map[string]CacheStats, 3)
	for _, c := range r.all() {
		out[c.Name()] = c.Stats()
	}
	return out
}

// -----------------------------------------------------------------------------

// Clear flushes the named cache.
func (r *CacheRegistry) Clear(name string) error {
	for _, c := range r.all() {
		if c.Name() == name {
			c.Clear()
			return nil
		}
	}
	return helpers.NewValidation(fmt.Sprintf("Invalid cache type: %s", name),
		helpers.FieldError{Field: "name", Message: "must be one of prices, news, insight"})
}

// -----------------------------------------------------------------------------

func (r *CacheRegistry) ClearAll() {
	for _, c := range r.all() {
		c.Clear()
	}
}

// -----------------------------------------------------------------------------

func (r *CacheRegistry) Close() {
	for _, c := range r.all() {
		c.Close()
	}
}
