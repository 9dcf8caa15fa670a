package directory

import (
	"context"
	"time"

	"github.com/aben18/enroll/internal/cachemanager"
)

// CachedService decorates a Service with read-through caching of the lookup
// operations. Name search stays uncached since results change with every
// keystroke, and writes pass straight through with cache invalidation.
type CachedService struct {
	inner Service
	cache cachemanager.CacheManager[string, *Organization]
	ttl   time.Duration

	byEmail *cachemanager.ReadThroughCache[string, *Organization, string]
	byID    *cachemanager.ReadThroughCache[string, *Organization, string]
}

var _ Service = (*CachedService)(nil)

// NewCachedService wraps inner with a lookup cache. TTL <= 0 disables caching
// without changing behavior.
func NewCachedService(inner Service, cache cachemanager.CacheManager[string, *Organization], ttl time.Duration) *CachedService {
	s := &CachedService{inner: inner, cache: cache, ttl: ttl}
	skip := ttl <= 0
	s.byEmail = cachemanager.NewReadThroughCache(cache, func(ctx context.Context, email string) (*Organization, error) {
		return inner.LookupByEmail(ctx, email)
	}, skip)
	s.byID = cachemanager.NewReadThroughCache(cache, func(ctx context.Context, id string) (*Organization, error) {
		return inner.LookupByID(ctx, id)
	}, skip)
	return s
}

func emailKey(email string) string { return "email:" + NormalizeEmail(email) }
func orgKey(id string) string      { return "org:" + id }

func (s *CachedService) LookupByEmail(ctx context.Context, email string) (*Organization, error) {
	return s.byEmail.Get(ctx, emailKey(email), email, s.ttl)
}

func (s *CachedService) SearchByName(ctx context.Context, name string, limit int) ([]Organization, error) {
	return s.inner.SearchByName(ctx, name, limit)
}

func (s *CachedService) LookupByID(ctx context.Context, id string) (*Organization, error) {
	return s.byID.Get(ctx, orgKey(id), id, s.ttl)
}

func (s *CachedService) CreateOrganization(ctx context.Context, name string) (string, error) {
	return s.inner.CreateOrganization(ctx, name)
}

// SubmitRegistration passes through and invalidates the submitted email so a
// later lookup sees the new contact.
func (s *CachedService) SubmitRegistration(ctx context.Context, reg Registration) error {
	if err := s.inner.SubmitRegistration(ctx, reg); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, emailKey(reg.Email))
	return nil
}

// Invalidate drops all cached lookups. Called when the directory database
// changes on disk.
func (s *CachedService) Invalidate(ctx context.Context) error {
	return s.cache.Flush(ctx)
}
