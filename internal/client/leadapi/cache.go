package leadapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// CachedEnricher memoizes EnrichContact results per email for a TTL.
// Search calls pass straight through.
type CachedEnricher struct {
	Service
	cache *ristretto.Cache[string, models.Enrichment]
	ttl   time.Duration
}

// NewCachedEnricher wraps next with a cache of up to maxEntries results
// kept for ttl.
func NewCachedEnricher(next Service, maxEntries int64, ttl time.Duration) (*CachedEnricher, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, models.Enrichment]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment cache: %w", err)
	}
	return &CachedEnricher{Service: next, cache: c, ttl: ttl}, nil
}

// EnrichContact serves email from the cache or asks the wrapped service.
// Errors are not cached.
func (c *CachedEnricher) EnrichContact(ctx context.Context, email string) (*models.Enrichment, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	if e, found := c.cache.Get(key); found {
		return &e, nil
	}

	e, err := c.Service.EnrichContact(ctx, email)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(key, *e, 1, c.ttl)
	c.cache.Wait()
	return e, nil
}

// Close stops the cache.
func (c *CachedEnricher) Close() {
	c.cache.Close()
}
