// Package directory defines the member directory contracts the registration
// form depends on: organization lookup and search, organization creation, and
// registration submission. Implementations live in subpackages; decorators in
// this package add caching and tracing.
package directory

import (
	"context"
	"fmt"
	"strings"
)

// Organization is a business entity a registrant can be associated with.
type Organization struct {
	ID   string
	Name string
}

// Registration is the full payload submitted for a prospective user.
type Registration struct {
	FirstName      string
	LastName       string
	Email          string
	JobTitle       string
	OrganizationID string
}

// SubmitError is the user-visible failure of a registration submission.
// Message carries the human-readable explanation from the directory.
type SubmitError struct {
	Message string
}

func (e *SubmitError) Error() string {
	return e.Message
}

// Service is the directory contract the registration workflow calls.
// Lookups return (nil, nil) when nothing matches; only infrastructure
// failures surface as errors.
type Service interface {
	// LookupByEmail finds the organization an existing contact with this
	// email belongs to. Exact match.
	LookupByEmail(ctx context.Context, email string) (*Organization, error)

	// SearchByName returns up to limit organizations whose names contain
	// the given text. May be empty.
	SearchByName(ctx context.Context, name string, limit int) ([]Organization, error)

	// LookupByID fetches a single organization.
	LookupByID(ctx context.Context, id string) (*Organization, error)

	// CreateOrganization records a new organization and returns its
	// assigned id.
	CreateOrganization(ctx context.Context, name string) (string, error)

	// SubmitRegistration records the registration. Failures the visitor
	// should see are returned as *SubmitError.
	SubmitRegistration(ctx context.Context, reg Registration) error
}

// NormalizeEmail lowercases and trims an email for matching and cache keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration rejects payloads the store should never see.
func ValidateRegistration(reg Registration) error {
	if strings.TrimSpace(reg.LastName) == "" {
		return fmt.Errorf("registration missing last name")
	}
	if NormalizeEmail(reg.Email) == "" {
		return fmt.Errorf("registration missing email")
	}
	if reg.OrganizationID == "" {
		return fmt.Errorf("registration missing organization id")
	}
	return nil
}
