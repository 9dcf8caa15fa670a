// Package testutil provides test utilities for directory database setup.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aben18/enroll/internal/directory/sqlite"
)

// NewTestStore creates a directory store backed by a database file in a
// per-test temp directory. Cleanup closes it.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedOrganization inserts an organization and returns its id.
func SeedOrganization(t *testing.T, store *sqlite.Store, name string) string {
	t.Helper()
	id, err := store.CreateOrganization(context.Background(), name)
	require.NoError(t, err)
	return id
}

// SeedContact inserts a contact belonging to an existing organization.
func SeedContact(t *testing.T, store *sqlite.Store, orgID, email string) {
	t.Helper()
	require.NoError(t, store.AddContact(context.Background(), orgID, "Test", "Contact", email, "Member"))
}
