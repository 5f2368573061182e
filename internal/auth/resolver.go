package auth

import (
	"context"
	"errors"

	"inventra-server/internal/models"
	"inventra-server/internal/store"
)

// ProfileSource resolves API tokens to tenant member profiles
type ProfileSource interface {
	GetProfileByToken(ctx context.Context, token string) (*models.Profile, error)
}

// DBResolver authenticates bearer tokens against the api_tokens table
type DBResolver struct {
	profiles ProfileSource
}

// NewDBResolver creates a database-backed token resolver
func NewDBResolver(profiles ProfileSource) *DBResolver {
	return &DBResolver{profiles: profiles}
}

// Resolve maps a bearer token to the caller's tenant context
func (r *DBResolver) Resolve(ctx context.Context, token string) (*Context, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	profile, err := r.profiles.GetProfileByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &Context{
		OrgID:  profile.OrgID,
		UserID: profile.ID,
		Role:   ParseRole(profile.Role),
	}, nil
}

var _ TokenResolver = (*DBResolver)(nil)
