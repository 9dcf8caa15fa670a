package registration

import (
	"strings"
	"unicode/utf8"

	"github.com/aben18/enroll/internal/directory"
)

// State is the resolver's coarse position in the workflow.
type State int

const (
	// StateIdle means no query is pending and no organization is attached.
	StateIdle State = iota
	// StateSearching means a debounced name search is outstanding.
	StateSearching
	// StateMatched means an organization id is attached, via lookup,
	// explicit pick, or creation.
	StateMatched
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// Lookup is an email lookup request the driver should issue.
type Lookup struct {
	Email   string
	Version int
}

// Search is a name search request the driver should issue after debouncing.
type Search struct {
	Query   string
	Version int
}

// LabelFetch is a by-id lookup request issued after organization creation so
// the display name is accurate even though creation only returned an id.
type LabelFetch struct {
	ID      string
	Version int
}

// Resolver governs how an organization identifier gets attached to the
// registration. Every outstanding request carries a monotonic version; results
// arriving for a superseded version are discarded, so a stale response can
// never overwrite newer state.
type Resolver struct {
	organizationID       string
	organizationLabel    string
	query                string
	candidates           []directory.Organization
	emailLookupAttempted bool
	dropdownVisible      bool

	email          string
	lookupIssued   bool
	lookupVersion  int
	searchVersion  int
	searchPending  bool
	labelVersion   int
	minQueryLength int
}

// NewResolver creates a resolver in the idle state. minQueryLength is the
// shortest trimmed query that may issue a search request.
func NewResolver(minQueryLength int) *Resolver {
	return &Resolver{minQueryLength: minQueryLength}
}

// OrganizationID returns the resolved organization identifier, empty until
// matched.
func (r *Resolver) OrganizationID() string { return r.organizationID }

// OrganizationLabel returns the resolved organization display name.
func (r *Resolver) OrganizationLabel() string { return r.organizationLabel }

// Query returns the current organization search text.
func (r *Resolver) Query() string { return r.query }

// Candidates returns the live search results.
func (r *Resolver) Candidates() []directory.Organization { return r.candidates }

// EmailLookupAttempted reports whether the automatic email lookup for the
// current email has completed.
func (r *Resolver) EmailLookupAttempted() bool { return r.emailLookupAttempted }

// DropdownVisible reports whether the candidate dropdown should be shown.
func (r *Resolver) DropdownVisible() bool { return r.dropdownVisible }

// State derives the coarse workflow state.
func (r *Resolver) State() State {
	if r.organizationID != "" {
		return StateMatched
	}
	if r.searchPending {
		return StateSearching
	}
	return StateIdle
}

// SetEmail binds the resolver to an email value. Any change restarts
// resolution from scratch.
func (r *Resolver) SetEmail(email string) {
	if email == r.email {
		return
	}
	r.Reset()
	r.email = email
}

// Reset forces the resolver back to idle: organization id/label, query,
// candidates, and the lookup-attempted flag all return to their defaults, and
// every outstanding request version is invalidated. Idempotent.
func (r *Resolver) Reset() {
	r.organizationID = ""
	r.organizationLabel = ""
	r.query = ""
	r.candidates = nil
	r.emailLookupAttempted = false
	r.dropdownVisible = false
	r.email = ""
	r.lookupIssued = false
	r.searchPending = false
	r.lookupVersion++
	r.searchVersion++
	r.labelVersion++
}

// FocusOrganization handles focus entering the organization field. The email
// lookup is issued at most once per distinct email; repeated focus events
// return ok=false.
func (r *Resolver) FocusOrganization() (Lookup, bool) {
	if r.email == "" || r.lookupIssued {
		return Lookup{}, false
	}
	r.lookupIssued = true
	r.lookupVersion++
	return Lookup{Email: r.email, Version: r.lookupVersion}, true
}

// ApplyLookup feeds back an email lookup result. Stale versions are discarded
// and the method reports whether the result was applied. The attempted flag is
// set on completion regardless of outcome, so the create gate opens and the
// lookup is never re-issued for this email. Lookup errors leave the
// organization unmatched; callers log them, the visitor never sees them.
func (r *Resolver) ApplyLookup(version int, org *directory.Organization, err error) bool {
	if version != r.lookupVersion {
		return false
	}
	r.emailLookupAttempted = true
	if err != nil || org == nil {
		return true
	}
	r.organizationID = org.ID
	r.organizationLabel = org.Name
	return true
}

// SetQuery updates the search text on each keystroke. Editing the text away
// from an attached organization's label detaches the match; resolution resumes
// from the new query. Queries shorter than the minimum (after trimming) are a
// hard short-circuit: candidates clear, the dropdown hides, no request is
// issued, and any in-flight search is invalidated. Otherwise the search
// version advances and the returned Search should be issued once the driver's
// debounce elapses.
func (r *Resolver) SetQuery(query string) (Search, bool) {
	if r.organizationID != "" && query != r.organizationLabel {
		r.organizationID = ""
		r.organizationLabel = ""
	}
	r.query = query
	if utf8.RuneCountInString(strings.TrimSpace(query)) < r.minQueryLength {
		r.candidates = nil
		r.dropdownVisible = false
		r.searchPending = false
		r.searchVersion++
		return Search{}, false
	}
	r.searchVersion++
	r.searchPending = true
	return Search{Query: query, Version: r.searchVersion}, true
}

// TakeSearch is called when the debounce timer fires. It yields the query to
// issue only if the version is still current; a newer keystroke supersedes the
// timer.
func (r *Resolver) TakeSearch(version int) (string, bool) {
	if version != r.searchVersion || !r.searchPending {
		return "", false
	}
	return r.query, true
}

// ApplySearchResults feeds back a name search result. Stale versions are
// discarded. On error the candidates clear and the dropdown hides (fail silent
// to the visitor); otherwise the dropdown shows only when at least one
// candidate came back.
func (r *Resolver) ApplySearchResults(version int, orgs []directory.Organization, err error) bool {
	if version != r.searchVersion {
		return false
	}
	r.searchPending = false
	if err != nil {
		r.candidates = nil
		r.dropdownVisible = false
		return true
	}
	r.candidates = orgs
	r.dropdownVisible = len(orgs) > 0
	return true
}

// Select attaches a picked candidate: the query text reflects the pick, the
// candidate list empties, and any in-flight search is invalidated.
func (r *Resolver) Select(org directory.Organization) {
	r.organizationID = org.ID
	r.organizationLabel = org.Name
	r.query = org.Name
	r.candidates = nil
	r.dropdownVisible = false
	r.searchPending = false
	r.searchVersion++
}

// ApplyCreated attaches a freshly created organization id and returns the
// by-id request for fetching its display name.
func (r *Resolver) ApplyCreated(id string) LabelFetch {
	r.organizationID = id
	r.organizationLabel = ""
	r.candidates = nil
	r.dropdownVisible = false
	r.searchPending = false
	r.searchVersion++
	r.labelVersion++
	return LabelFetch{ID: id, Version: r.labelVersion}
}

// ApplyCreatedLabel feeds back the by-id lookup after creation. Discarded when
// stale or when the resolver has since moved to a different organization.
func (r *Resolver) ApplyCreatedLabel(version int, org *directory.Organization) bool {
	if version != r.labelVersion || org == nil || org.ID != r.organizationID {
		return false
	}
	r.organizationLabel = org.Name
	r.query = org.Name
	return true
}

// HideDropdown hides the candidate list without touching anything else, for
// blur and escape handling in the driver.
func (r *Resolver) HideDropdown() {
	r.dropdownVisible = false
}
