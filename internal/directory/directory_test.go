package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/aben18/enroll/internal/cachemanager"
	"github.com/aben18/enroll/internal/directory"
)

// fakeService counts calls so the decorator tests can observe pass-through
// and cache behavior.
type fakeService struct {
	lookupByEmailCalls int
	lookupByIDCalls    int
	searchCalls        int
	submitCalls        int

	org       *directory.Organization
	searchRes []directory.Organization
	submitErr error
}

func (f *fakeService) LookupByEmail(ctx context.Context, email string) (*directory.Organization, error) {
	f.lookupByEmailCalls++
	return f.org, nil
}

func (f *fakeService) SearchByName(ctx context.Context, name string, limit int) ([]directory.Organization, error) {
	f.searchCalls++
	return f.searchRes, nil
}

func (f *fakeService) LookupByID(ctx context.Context, id string) (*directory.Organization, error) {
	f.lookupByIDCalls++
	return f.org, nil
}

func (f *fakeService) CreateOrganization(ctx context.Context, name string) (string, error) {
	return "org-1", nil
}

func (f *fakeService) SubmitRegistration(ctx context.Context, reg directory.Registration) error {
	f.submitCalls++
	return f.submitErr
}

func newLookupCache() cachemanager.CacheManager[string, *directory.Organization] {
	return cachemanager.NewInMemoryCacheManager[string, *directory.Organization](
		"test", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@acme.test", directory.NormalizeEmail("  Jane@Acme.Test "))
	assert.Equal(t, "", directory.NormalizeEmail("   "))
}

func TestValidateRegistration(t *testing.T) {
	valid := directory.Registration{
		LastName:       "Doe",
		Email:          "jane@acme.test",
		OrganizationID: "org-1",
	}
	assert.NoError(t, directory.ValidateRegistration(valid))

	tests := []struct {
		name   string
		mutate func(*directory.Registration)
	}{
		{"missing last name", func(r *directory.Registration) { r.LastName = "  " }},
		{"missing email", func(r *directory.Registration) { r.Email = "" }},
		{"missing organization", func(r *directory.Registration) { r.OrganizationID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.mutate(&reg)
			assert.Error(t, directory.ValidateRegistration(reg))
		})
	}
}

func TestCachedService_LookupByEmail(t *testing.T) {
	fake := &fakeService{org: &directory.Organization{ID: "org-1", Name: "Acme"}}
	svc := directory.NewCachedService(fake, newLookupCache(), time.Minute)
	ctx := context.Background()

	for range 3 {
		org, err := svc.LookupByEmail(ctx, "Jane@Acme.Test")
		require.NoError(t, err)
		require.NotNil(t, org)
		assert.Equal(t, "org-1", org.ID)
	}
	assert.Equal(t, 1, fake.lookupByEmailCalls, "repeat lookups should hit the cache")
}

func TestCachedService_TTLDisabled(t *testing.T) {
	fake := &fakeService{org: &directory.Organization{ID: "org-1"}}
	svc := directory.NewCachedService(fake, newLookupCache(), 0)
	ctx := context.Background()

	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	assert.Equal(t, 2, fake.lookupByEmailCalls)
}

func TestCachedService_SearchUncached(t *testing.T) {
	fake := &fakeService{searchRes: []directory.Organization{{ID: "org-1", Name: "Acme"}}}
	svc := directory.NewCachedService(fake, newLookupCache(), time.Minute)
	ctx := context.Background()

	_, _ = svc.SearchByName(ctx, "acme", 10)
	_, _ = svc.SearchByName(ctx, "acme", 10)
	assert.Equal(t, 2, fake.searchCalls)
}

func TestCachedService_SubmitInvalidatesEmail(t *testing.T) {
	fake := &fakeService{org: nil}
	svc := directory.NewCachedService(fake, newLookupCache(), time.Minute)
	ctx := context.Background()

	// Prime the cache with a miss result.
	_, err := svc.LookupByEmail(ctx, "jane@acme.test")
	require.NoError(t, err)
	require.Equal(t, 1, fake.lookupByEmailCalls)

	require.NoError(t, svc.SubmitRegistration(ctx, directory.Registration{
		LastName:       "Doe",
		Email:          "Jane@Acme.Test",
		OrganizationID: "org-1",
	}))

	// The submitted email must be refetched, not served from the cache.
	_, err = svc.LookupByEmail(ctx, "jane@acme.test")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.lookupByEmailCalls)
}

func TestCachedService_SubmitFailureKeepsCache(t *testing.T) {
	fake := &fakeService{submitErr: &directory.SubmitError{Message: "boom"}}
	svc := directory.NewCachedService(fake, newLookupCache(), time.Minute)
	ctx := context.Background()

	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	require.Equal(t, 1, fake.lookupByEmailCalls)

	err := svc.SubmitRegistration(ctx, directory.Registration{
		LastName: "Doe", Email: "jane@acme.test", OrganizationID: "org-1",
	})
	var submitErr *directory.SubmitError
	require.ErrorAs(t, err, &submitErr)

	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	assert.Equal(t, 1, fake.lookupByEmailCalls)
}

func TestCachedService_Invalidate(t *testing.T) {
	fake := &fakeService{org: &directory.Organization{ID: "org-1"}}
	cache := newLookupCache()
	svc := directory.NewCachedService(fake, cache, time.Minute)
	ctx := context.Background()

	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	_, _ = svc.LookupByID(ctx, "org-1")
	require.NoError(t, svc.Invalidate(ctx))

	_, _ = svc.LookupByEmail(ctx, "jane@acme.test")
	_, _ = svc.LookupByID(ctx, "org-1")
	assert.Equal(t, 2, fake.lookupByEmailCalls)
	assert.Equal(t, 2, fake.lookupByIDCalls)
}

func TestTracedService_PassThrough(t *testing.T) {
	fake := &fakeService{
		org:       &directory.Organization{ID: "org-1", Name: "Acme"},
		searchRes: []directory.Organization{{ID: "org-1", Name: "Acme"}},
	}
	tracer := noop.NewTracerProvider().Tracer("test")
	svc := directory.NewTracedService(fake, tracer)
	ctx := context.Background()

	org, err := svc.LookupByEmail(ctx, "jane@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)

	orgs, err := svc.SearchByName(ctx, "acme", 10)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	id, err := svc.CreateOrganization(ctx, "Globex")
	require.NoError(t, err)
	assert.Equal(t, "org-1", id)

	require.NoError(t, svc.SubmitRegistration(ctx, directory.Registration{
		LastName: "Doe", Email: "jane@acme.test", OrganizationID: "org-1",
	}))
	assert.Equal(t, 1, fake.submitCalls)
}

func TestTracedService_ErrorPassThrough(t *testing.T) {
	wantErr := errors.New("directory unavailable")
	fake := &fakeService{submitErr: wantErr}
	tracer := noop.NewTracerProvider().Tracer("test")
	svc := directory.NewTracedService(fake, tracer)

	err := svc.SubmitRegistration(context.Background(), directory.Registration{
		LastName: "Doe", Email: "jane@acme.test", OrganizationID: "org-1",
	})
	assert.ErrorIs(t, err, wantErr)
}
