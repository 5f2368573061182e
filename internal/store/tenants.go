package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventra-server/internal/models"
)

// GetOrganization retrieves a tenant record
func (s *Store) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.GetContext(ctx, &org,
		"SELECT * FROM organizations WHERE id = $1", orgID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s: %w", orgID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrganizations lists all tenants (used by the low-stock scanner)
func (s *Store) GetOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.SelectContext(ctx, &orgs, "SELECT * FROM organizations ORDER BY name")
	return orgs, err
}

// GetProfileByToken resolves an API token to the caller's profile. The hosted
// auth provider normally owns token verification; this DB-backed path serves
// self-hosted deployments and tests.
func (s *Store) GetProfileByToken(ctx context.Context, token string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, `
		SELECT p.id, p.org_id, p.email, p.role, p.created_at
		FROM api_tokens t
		JOIN profiles p ON p.id = t.profile_id
		WHERE t.token = $1 AND (t.expires_at IS NULL OR t.expires_at > NOW())`, token)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfiles lists a tenant's members, oldest first
func (s *Store) GetProfiles(ctx context.Context, orgID string) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.db.SelectContext(ctx, &profiles, `
		SELECT id, org_id, email, role, created_at
		FROM profiles
		WHERE org_id = $1
		ORDER BY created_at`, orgID)
	return profiles, err
}

// GetProfile retrieves one tenant member
func (s *Store) GetProfile(ctx context.Context, orgID, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, `
		SELECT id, org_id, email, role, created_at
		FROM profiles
		WHERE org_id = $1 AND id = $2`, orgID, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile inserts a tenant member
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO profiles (id, org_id, email, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		profile.ID, profile.OrgID, profile.Email, profile.Role,
	).Scan(&profile.CreatedAt)
}

// UpdateProfileRole changes a tenant member's role
func (s *Store) UpdateProfileRole(ctx context.Context, orgID, id, role string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET role = $1 WHERE org_id = $2 AND id = $3", role, orgID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetAdminRecipients returns the emails of a tenant's owner/admin members,
// plus the organization contact address when set
func (s *Store) GetAdminRecipients(ctx context.Context, orgID string) ([]string, error) {
	var emails []string
	err := s.db.SelectContext(ctx, &emails, `
		SELECT DISTINCT email FROM profiles
		WHERE org_id = $1 AND role IN ('owner', 'admin') AND email <> ''`, orgID)
	if err != nil {
		return nil, err
	}

	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return emails, nil
	}
	if org.Email.Valid && org.Email.String != "" {
		seen := false
		for _, e := range emails {
			if e == org.Email.String {
				seen = true
				break
			}
		}
		if !seen {
			emails = append(emails, org.Email.String)
		}
	}
	return emails, nil
}
