package classifier

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// Cached memoizes results by text. A room's seed text never changes, so
// reclassifying it on every turn always yields the same verdict.
type Cached struct {
	next  Classifier
	cache *cache.Cache
}

// Compile-time check that Cached implements Classifier.
var _ Classifier = (*Cached)(nil)

// NewCached wraps next. Entries live for the process lifetime.
func NewCached(next Classifier) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Classify returns the cached result for text or computes and stores it.
// Failures are not cached.
func (c *Cached) Classify(ctx context.Context, text string) (Result, error) {
	if x, found := c.cache.Get(text); found {
		return x.(Result), nil
	}
	res, err := c.next.Classify(ctx, text)
	if err != nil {
		return Result{}, err
	}
	c.cache.Set(text, res, cache.NoExpiration)
	return res, nil
}

// Len returns the number of cached verdicts.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
