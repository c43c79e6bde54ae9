package storage

import (
	"sync/atomic"
	"time"

	"github.com/LJTian/NewsHarvest/internal/processor"
)

type snapshot struct {
	articles  []processor.Article
	updatedAt time.Time
}

// Cache holds the latest complete article collection. Replace swaps a
// single pointer, so readers see either the previous or the new collection
// and never a mix.
type Cache struct {
	current atomic.Pointer[snapshot]
	now     func() time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// Replace stores a copy of articles. Empty input is ignored and reported as
// false.
func (c *Cache) Replace(articles []processor.Article) bool {
	if len(articles) == 0 {
		return false
	}
	cp := make([]processor.Article, len(articles))
	copy(cp, articles)
	c.current.Store(&snapshot{articles: cp, updatedAt: c.now()})
	return true
}

// Snapshot returns a copy of the cached collection and whether the cache has
// ever been populated.
func (c *Cache) Snapshot() ([]processor.Article, bool) {
	s := c.current.Load()
	if s == nil {
		return nil, false
	}
	cp := make([]processor.Article, len(s.articles))
	copy(cp, s.articles)
	return cp, true
}

// Current returns the cached collection, or the fallback set when the cache
// was never populated.
func (c *Cache) Current() []processor.Article {
	if articles, ok := c.Snapshot(); ok {
		return articles
	}
	return FallbackArticles(c.now())
}

// UpdatedAt reports when the cache was last replaced; zero if never.
func (c *Cache) UpdatedAt() time.Time {
	if s := c.current.Load(); s != nil {
		return s.updatedAt
	}
	return time.Time{}
}
