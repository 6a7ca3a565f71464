package store

import (
	"context"
	"errors"
	"path"
)

// ResultCache stores one extraction result per work-unit key, so reruns of a
// pass short-circuit instead of repeating generative-service calls. A cached
// entry is never regenerated unless it is removed from the store externally.
type ResultCache struct {
	store  Store
	prefix string
}

// NewResultCache returns a cache writing below prefix (typically the run's
// key prefix).
func NewResultCache(s Store, prefix string) *ResultCache {
	return &ResultCache{store: s, prefix: prefix}
}

func (c *ResultCache) key(passID, unitKey string) string {
	return path.Join(c.prefix, "fragments", passID, unitKey+".json")
}

// Get loads the cached result for a work unit into v. The bool reports
// whether an entry existed.
func (c *ResultCache) Get(ctx context.Context, passID, unitKey string, v any) (bool, error) {
	err := c.store.ReadJSON(ctx, c.key(passID, unitKey), v)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put stores the result for a work unit, replacing any previous entry.
func (c *ResultCache) Put(ctx context.Context, passID, unitKey string, v any) error {
	return c.store.WriteJSON(ctx, c.key(passID, unitKey), v)
}

// Keys lists the cached unit keys of one pass.
func (c *ResultCache) Keys(ctx context.Context, passID string) ([]string, error) {
	return c.store.List(ctx, path.Join(c.prefix, "fragments", passID)+"/")
}
