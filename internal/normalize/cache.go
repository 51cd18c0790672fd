package normalize

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultResolverTTL     = 30 * time.Minute
	defaultCleanupInterval = time.Hour
)

// CachingResolver memoizes DOI lookups for the duration of a run. Theses in
// one batch often share included papers, so each reference is resolved at
// most once. Errors are not cached.
type CachingResolver struct {
	next  Resolver
	cache *gocache.Cache
}

// NewCachingResolver wraps next with an in-memory cache. A non-positive ttl
// uses DefaultResolverTTL.
func NewCachingResolver(next Resolver, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = DefaultResolverTTL
	}
	return &CachingResolver{
		next:  next,
		cache: gocache.New(ttl, defaultCleanupInterval),
	}
}

// ResolveDOI returns the cached DOI for publicationID or delegates to the
// wrapped resolver. Absent DOIs are cached as the empty string.
func (r *CachingResolver) ResolveDOI(ctx context.Context, publicationID string) (string, error) {
	if value, found := r.cache.Get(publicationID); found {
		if doi, ok := value.(string); ok {
			return doi, nil
		}
	}
	doi, err := r.next.ResolveDOI(ctx, publicationID)
	if err != nil {
		return "", err
	}
	r.cache.SetDefault(publicationID, doi)
	return doi, nil
}

// Len reports how many lookups are cached.
func (r *CachingResolver) Len() int {
	return r.cache.ItemCount()
}
