package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/directory/sqlite"
	"github.com/aben18/enroll/internal/testutil"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	orgs, err := store.ListOrganizations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orgs)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = store.CreateOrganization(context.Background(), "Acme Corp")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Schema must not be re-applied on a populated database.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	orgs, err := store.ListOrganizations(context.Background())
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
}

func TestCreateOrganization(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := store.CreateOrganization(ctx, "  Acme Corp  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	org, err := store.LookupByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, "Acme Corp", org.Name)
}

func TestCreateOrganization_EmptyName(t *testing.T) {
	store := testutil.NewTestStore(t)
	_, err := store.CreateOrganization(context.Background(), "   ")
	assert.Error(t, err)
}

func TestLookupByEmail(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	orgID := testutil.SeedOrganization(t, store, "Acme Corp")
	testutil.SeedContact(t, store, orgID, "jane@acme.test")

	t.Run("match", func(t *testing.T) {
		org, err := store.LookupByEmail(ctx, "jane@acme.test")
		require.NoError(t, err)
		require.NotNil(t, org)
		assert.Equal(t, orgID, org.ID)
		assert.Equal(t, "Acme Corp", org.Name)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		org, err := store.LookupByEmail(ctx, "  Jane@Acme.Test ")
		require.NoError(t, err)
		require.NotNil(t, org)
		assert.Equal(t, orgID, org.ID)
	})

	t.Run("no match", func(t *testing.T) {
		org, err := store.LookupByEmail(ctx, "nobody@acme.test")
		require.NoError(t, err)
		assert.Nil(t, org)
	})
}

func TestSearchByName(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedOrganization(t, store, "Acme Corp")
	testutil.SeedOrganization(t, store, "Acme Labs")
	testutil.SeedOrganization(t, store, "Globex")

	t.Run("substring match", func(t *testing.T) {
		orgs, err := store.SearchByName(ctx, "acme", 10)
		require.NoError(t, err)
		require.Len(t, orgs, 2)
		assert.Equal(t, "Acme Corp", orgs[0].Name)
		assert.Equal(t, "Acme Labs", orgs[1].Name)
	})

	t.Run("limit", func(t *testing.T) {
		orgs, err := store.SearchByName(ctx, "acme", 1)
		require.NoError(t, err)
		assert.Len(t, orgs, 1)
	})

	t.Run("no match", func(t *testing.T) {
		orgs, err := store.SearchByName(ctx, "initech", 10)
		require.NoError(t, err)
		assert.Empty(t, orgs)
	})
}

func TestLookupByID_Missing(t *testing.T) {
	store := testutil.NewTestStore(t)
	org, err := store.LookupByID(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, org)
}

func TestSubmitRegistration(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()
	orgID := testutil.SeedOrganization(t, store, "Acme Corp")

	reg := directory.Registration{
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "Jane@Acme.Test",
		JobTitle:       "Engineer",
		OrganizationID: orgID,
	}
	require.NoError(t, store.SubmitRegistration(ctx, reg))

	// Registration created the contact, so the email now resolves.
	org, err := store.LookupByEmail(ctx, "jane@acme.test")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, orgID, org.ID)
}

func TestSubmitRegistration_DuplicateEmail(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()
	orgID := testutil.SeedOrganization(t, store, "Acme Corp")
	testutil.SeedContact(t, store, orgID, "jane@acme.test")

	err := store.SubmitRegistration(ctx, directory.Registration{
		LastName:       "Doe",
		Email:          "jane@acme.test",
		OrganizationID: orgID,
	})
	require.Error(t, err)

	var submitErr *directory.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "A user with this email address already exists.", submitErr.Message)
}

func TestSubmitRegistration_Invalid(t *testing.T) {
	store := testutil.NewTestStore(t)
	err := store.SubmitRegistration(context.Background(), directory.Registration{
		Email: "jane@acme.test",
	})
	assert.Error(t, err)
}
