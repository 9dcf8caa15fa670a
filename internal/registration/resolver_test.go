package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aben18/enroll/internal/directory"
)

const testMinQuery = 2

func matchedResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	lookup, ok := r.FocusOrganization()
	require.True(t, ok)
	require.True(t, r.ApplyLookup(lookup.Version, &directory.Organization{ID: "001", Name: "Acme"}, nil))
	return r
}

func TestResolver_EmailLookupMatch(t *testing.T) {
	r := matchedResolver(t)

	assert.Equal(t, "001", r.OrganizationID())
	assert.Equal(t, "Acme", r.OrganizationLabel())
	assert.True(t, r.EmailLookupAttempted())
	assert.Equal(t, StateMatched, r.State())
}

func TestResolver_FocusWithoutEmailDoesNotLookup(t *testing.T) {
	r := NewResolver(testMinQuery)

	_, ok := r.FocusOrganization()
	assert.False(t, ok)
	assert.False(t, r.EmailLookupAttempted())
}

func TestResolver_FocusIssuesLookupOncePerEmail(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")

	lookup, ok := r.FocusOrganization()
	require.True(t, ok)
	assert.Equal(t, "john@doe.com", lookup.Email)

	// Repeated focus must not re-issue, even before the result arrives.
	_, ok = r.FocusOrganization()
	assert.False(t, ok)

	// Still no re-issue after a no-match completion.
	require.True(t, r.ApplyLookup(lookup.Version, nil, nil))
	_, ok = r.FocusOrganization()
	assert.False(t, ok)

	// A new email restarts the guard.
	r.SetEmail("jane@doe.com")
	_, ok = r.FocusOrganization()
	assert.True(t, ok)
}

func TestResolver_LookupNoMatchLeavesUnmatched(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	lookup, _ := r.FocusOrganization()

	require.True(t, r.ApplyLookup(lookup.Version, nil, nil))

	assert.Empty(t, r.OrganizationID())
	assert.True(t, r.EmailLookupAttempted())
	assert.Equal(t, StateIdle, r.State())
}

func TestResolver_LookupErrorStillCompletesAttempt(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	lookup, _ := r.FocusOrganization()

	require.True(t, r.ApplyLookup(lookup.Version, nil, errors.New("directory down")))

	assert.Empty(t, r.OrganizationID())
	assert.True(t, r.EmailLookupAttempted())
}

func TestResolver_StaleLookupDiscarded(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	lookup, _ := r.FocusOrganization()

	// Email changes while the lookup is in flight.
	r.SetEmail("jane@doe.com")

	applied := r.ApplyLookup(lookup.Version, &directory.Organization{ID: "001", Name: "Acme"}, nil)
	assert.False(t, applied)
	assert.Empty(t, r.OrganizationID())
	assert.False(t, r.EmailLookupAttempted())
}

func TestResolver_EmailChangeResetsEverything(t *testing.T) {
	r := matchedResolver(t)
	search, ok := r.SetQuery("Ac")
	require.True(t, ok)
	require.True(t, r.ApplySearchResults(search.Version, []directory.Organization{{ID: "002", Name: "Acme East"}}, nil))

	r.SetEmail("other@doe.com")

	assert.Empty(t, r.OrganizationID())
	assert.Empty(t, r.OrganizationLabel())
	assert.Empty(t, r.Query())
	assert.Empty(t, r.Candidates())
	assert.False(t, r.EmailLookupAttempted())
	assert.False(t, r.DropdownVisible())
	assert.Equal(t, StateIdle, r.State())
}

func TestResolver_SetEmailSameValueIsNoop(t *testing.T) {
	r := matchedResolver(t)
	r.SetEmail("john@doe.com")
	assert.Equal(t, "001", r.OrganizationID())
}

func TestResolver_ShortQueryShortCircuits(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, ok := r.SetQuery("Acme")
	require.True(t, ok)
	require.True(t, r.ApplySearchResults(search.Version, []directory.Organization{{ID: "001", Name: "Acme"}}, nil))
	require.True(t, r.DropdownVisible())

	// One character: candidates clear, dropdown hides, no request.
	_, ok = r.SetQuery("A")
	assert.False(t, ok)
	assert.Empty(t, r.Candidates())
	assert.False(t, r.DropdownVisible())

	// Whitespace padding does not defeat the minimum.
	_, ok = r.SetQuery("  A  ")
	assert.False(t, ok)
}

func TestResolver_ShortQueryInvalidatesInFlightSearch(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, ok := r.SetQuery("Acme")
	require.True(t, ok)

	_, ok = r.SetQuery("A")
	require.False(t, ok)

	// The old search result arrives late and must be discarded.
	applied := r.ApplySearchResults(search.Version, []directory.Organization{{ID: "001", Name: "Acme"}}, nil)
	assert.False(t, applied)
	assert.Empty(t, r.Candidates())
	assert.False(t, r.DropdownVisible())
}

func TestResolver_TakeSearchRespectsSupersededVersions(t *testing.T) {
	r := NewResolver(testMinQuery)
	first, ok := r.SetQuery("Ac")
	require.True(t, ok)
	second, ok := r.SetQuery("Acm")
	require.True(t, ok)

	// The first debounce timer fires after a newer keystroke: no search.
	_, ok = r.TakeSearch(first.Version)
	assert.False(t, ok)

	query, ok := r.TakeSearch(second.Version)
	require.True(t, ok)
	assert.Equal(t, "Acm", query)
}

func TestResolver_SearchResultsShowDropdownOnlyWhenNonEmpty(t *testing.T) {
	r := NewResolver(testMinQuery)

	search, _ := r.SetQuery("Acme")
	require.True(t, r.ApplySearchResults(search.Version, nil, nil))
	assert.False(t, r.DropdownVisible())

	search, _ = r.SetQuery("Acme Inc")
	require.True(t, r.ApplySearchResults(search.Version, []directory.Organization{{ID: "001", Name: "Acme Inc"}}, nil))
	assert.True(t, r.DropdownVisible())
}

func TestResolver_SearchErrorFailsSilent(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, _ := r.SetQuery("Acme")

	require.True(t, r.ApplySearchResults(search.Version, nil, errors.New("timeout")))
	assert.Empty(t, r.Candidates())
	assert.False(t, r.DropdownVisible())
	assert.Equal(t, StateIdle, r.State())
}

func TestResolver_StaleSearchResultsDiscarded(t *testing.T) {
	r := NewResolver(testMinQuery)
	stale, _ := r.SetQuery("Ac")
	fresh, _ := r.SetQuery("Acme")

	require.True(t, r.ApplySearchResults(fresh.Version, []directory.Organization{{ID: "001", Name: "Acme"}}, nil))

	// The slower response for the earlier query resolves last; it must not win.
	applied := r.ApplySearchResults(stale.Version, []directory.Organization{{ID: "999", Name: "Achilles"}}, nil)
	assert.False(t, applied)
	require.Len(t, r.Candidates(), 1)
	assert.Equal(t, "001", r.Candidates()[0].ID)
}

func TestResolver_SelectCandidate(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, _ := r.SetQuery("Ac")
	require.True(t, r.ApplySearchResults(search.Version, []directory.Organization{
		{ID: "001", Name: "Acme"},
		{ID: "002", Name: "Acme East"},
	}, nil))

	r.Select(directory.Organization{ID: "002", Name: "Acme East"})

	assert.Equal(t, "002", r.OrganizationID())
	assert.Equal(t, "Acme East", r.OrganizationLabel())
	assert.Equal(t, "Acme East", r.Query())
	assert.Empty(t, r.Candidates())
	assert.False(t, r.DropdownVisible())
	assert.Equal(t, StateMatched, r.State())
}

func TestResolver_EditingQueryAfterSelectDetachesMatch(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.Select(directory.Organization{ID: "002", Name: "Acme East"})
	require.Equal(t, StateMatched, r.State())

	// Setting the exact attached label keeps the match.
	_, ok := r.SetQuery("Acme East")
	require.True(t, ok)
	assert.Equal(t, "002", r.OrganizationID())

	// Any divergent edit detaches the organization and resumes searching.
	search, ok := r.SetQuery("Acme Eas")
	require.True(t, ok)
	assert.Empty(t, r.OrganizationID())
	assert.Empty(t, r.OrganizationLabel())
	assert.Equal(t, "Acme Eas", search.Query)
	assert.Equal(t, StateSearching, r.State())
}

func TestResolver_SelectInvalidatesInFlightSearch(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, _ := r.SetQuery("Ac")

	r.Select(directory.Organization{ID: "001", Name: "Acme"})

	applied := r.ApplySearchResults(search.Version, []directory.Organization{{ID: "999", Name: "Achilles"}}, nil)
	assert.False(t, applied)
	assert.Empty(t, r.Candidates())
}

func TestResolver_CreationFlow(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	lookup, _ := r.FocusOrganization()
	require.True(t, r.ApplyLookup(lookup.Version, nil, nil))

	fetch := r.ApplyCreated("003")
	assert.Equal(t, "003", r.OrganizationID())
	assert.Empty(t, r.OrganizationLabel())
	assert.Equal(t, StateMatched, r.State())
	assert.Equal(t, "003", fetch.ID)

	// Label arrives from the by-id lookup.
	require.True(t, r.ApplyCreatedLabel(fetch.Version, &directory.Organization{ID: "003", Name: "New Org"}))
	assert.Equal(t, "New Org", r.OrganizationLabel())
	assert.Equal(t, "New Org", r.Query())
}

func TestResolver_CreatedLabelDiscardedAfterEmailChange(t *testing.T) {
	r := NewResolver(testMinQuery)
	r.SetEmail("john@doe.com")
	fetch := r.ApplyCreated("003")

	r.SetEmail("jane@doe.com")

	applied := r.ApplyCreatedLabel(fetch.Version, &directory.Organization{ID: "003", Name: "New Org"})
	assert.False(t, applied)
	assert.Empty(t, r.OrganizationLabel())
	assert.Empty(t, r.OrganizationID())
}

func TestResolver_ResetIdempotent(t *testing.T) {
	r := matchedResolver(t)

	r.Reset()
	snapshot := observableState(r)
	r.Reset()

	assert.Equal(t, snapshot, observableState(r))
}

func TestResolver_HideDropdown(t *testing.T) {
	r := NewResolver(testMinQuery)
	search, _ := r.SetQuery("Acme")
	require.True(t, r.ApplySearchResults(search.Version, []directory.Organization{{ID: "001", Name: "Acme"}}, nil))

	r.HideDropdown()

	assert.False(t, r.DropdownVisible())
	// Candidates survive; only visibility changes.
	assert.Len(t, r.Candidates(), 1)
}

// resolverSnapshot captures every externally observable piece of resolver state.
type resolverSnapshot struct {
	ID, Label, Query string
	Candidates       []directory.Organization
	Attempted        bool
	Dropdown         bool
	State            State
}

func observableState(r *Resolver) resolverSnapshot {
	return resolverSnapshot{
		ID:         r.OrganizationID(),
		Label:      r.OrganizationLabel(),
		Query:      r.Query(),
		Candidates: r.Candidates(),
		Attempted:  r.EmailLookupAttempted(),
		Dropdown:   r.DropdownVisible(),
		State:      r.State(),
	}
}
