// Package sqlite implements the directory service on an embedded SQLite
// database holding organizations and their contacts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aben18/enroll/internal/directory"
	"github.com/aben18/enroll/internal/log"
)

// Schema is the directory database layout. Applied on open when the database
// is new; schemaVersion guards against re-running it.
const schemaVersion = 1

const schema = `
CREATE TABLE organizations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_organizations_name ON organizations(name);

CREATE TABLE contacts (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	job_title TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (organization_id) REFERENCES organizations(id)
);

CREATE TABLE registrations (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);
`

// Store provides access to the member directory database.
type Store struct {
	db   *sql.DB
	path string
}

// Ensure Store implements the directory contract.
var _ directory.Service = (*Store)(nil)

// Open connects to the directory database at path, creating and initializing
// it if it does not exist.
func Open(path string) (*Store, error) {
	log.Debug(log.CatDB, "Opening directory database", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("opening directory database: %w", err)
	}
	if err := db.Ping(); err != nil {
		log.ErrorErr(log.CatDB, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("pinging directory database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info(log.CatDB, "Connected to directory database", "path", path)
	return s, nil
}

func (s *Store) ensureSchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	log.Info(log.CatDB, "Initialized directory schema", "version", schemaVersion)
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LookupByEmail finds the organization of an existing contact by exact email
// match. Returns (nil, nil) when no contact has that email.
func (s *Store) LookupByEmail(ctx context.Context, email string) (*directory.Organization, error) {
	var org directory.Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.name
		FROM contacts c
		JOIN organizations o ON o.id = c.organization_id
		WHERE c.email = ?
		LIMIT 1`,
		directory.NormalizeEmail(email),
	).Scan(&org.ID, &org.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.ErrorErr(log.CatDB, "LookupByEmail query failed", err)
		return nil, fmt.Errorf("looking up organization by email: %w", err)
	}
	return &org, nil
}

// SearchByName returns organizations whose names contain the given text,
// case-insensitively, ordered by name.
func (s *Store) SearchByName(ctx context.Context, name string, limit int) ([]directory.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM organizations
		WHERE lower(name) LIKE '%' || lower(?) || '%'
		ORDER BY name
		LIMIT ?`,
		strings.TrimSpace(name), limit,
	)
	if err != nil {
		log.ErrorErr(log.CatDB, "SearchByName query failed", err, "name", name)
		return nil, fmt.Errorf("searching organizations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var orgs []directory.Organization
	for rows.Next() {
		var org directory.Organization
		if err := rows.Scan(&org.ID, &org.Name); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating organizations: %w", err)
	}
	return orgs, nil
}

// LookupByID fetches a single organization. Returns (nil, nil) when absent.
func (s *Store) LookupByID(ctx context.Context, id string) (*directory.Organization, error) {
	var org directory.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM organizations WHERE id = ?`, id,
	).Scan(&org.ID, &org.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.ErrorErr(log.CatDB, "LookupByID query failed", err, "id", id)
		return nil, fmt.Errorf("looking up organization by id: %w", err)
	}
	return &org, nil
}

// CreateOrganization records a new organization and returns its assigned id.
func (s *Store) CreateOrganization(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("organization name must not be empty")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC(),
	)
	if err != nil {
		log.ErrorErr(log.CatDB, "CreateOrganization insert failed", err, "name", name)
		return "", fmt.Errorf("creating organization: %w", err)
	}
	log.Info(log.CatDB, "Created organization", "id", id, "name", name)
	return id, nil
}

// SubmitRegistration records a contact and its pending registration. A contact
// with the same email is the one user-visible failure.
func (s *Store) SubmitRegistration(ctx context.Context, reg directory.Registration) error {
	if err := directory.ValidateRegistration(reg); err != nil {
		return err
	}

	email := directory.NormalizeEmail(reg.Email)

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM contacts WHERE email = ? LIMIT 1`, email,
	).Scan(&exists)
	if err == nil {
		return &directory.SubmitError{Message: "A user with this email address already exists."}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking existing contact: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	contactID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO contacts (id, organization_id, first_name, last_name, email, job_title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		contactID, reg.OrganizationID, reg.FirstName, reg.LastName, email, reg.JobTitle, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registrations (id, contact_id, status, created_at) VALUES (?, ?, 'pending', ?)`,
		uuid.NewString(), contactID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing registration: %w", err)
	}
	log.Info(log.CatDB, "Recorded registration", "contact", contactID, "organization", reg.OrganizationID)
	return nil
}

// AddContact inserts a contact directly, bypassing the registration flow.
// Used for seeding demo data.
func (s *Store) AddContact(ctx context.Context, orgID, firstName, lastName, email, jobTitle string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, organization_id, first_name, last_name, email, job_title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), orgID, firstName, lastName, directory.NormalizeEmail(email), jobTitle, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	return nil
}

// ListOrganizations returns all organizations ordered by name.
func (s *Store) ListOrganizations(ctx context.Context) ([]directory.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var orgs []directory.Organization
	for rows.Next() {
		var org directory.Organization
		if err := rows.Scan(&org.ID, &org.Name); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
