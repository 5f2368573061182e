package service

import (
	"context"
	"testing"

	"inventra-server/internal/models"
	"inventra-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProfileStore struct {
	profiles map[string]*models.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.Profile)}
}

func (f *fakeProfileStore) GetProfiles(ctx context.Context, orgID string) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.OrgID == orgID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, orgID, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok || p.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	cp := *profile
	f.profiles[profile.ID] = &cp
	return nil
}

func (f *fakeProfileStore) UpdateProfileRole(ctx context.Context, orgID, id, role string) error {
	p, ok := f.profiles[id]
	if !ok || p.OrgID != orgID {
		return store.ErrNotFound
	}
	p.Role = role
	return nil
}

func newUserService(f *fakeProfileStore, limits LimitChecker) (*UserService, *recordingAuditor) {
	audit := &recordingAuditor{}
	return &UserService{
		store:  f,
		limits: limits,
		audit:  audit,
		logger: zap.NewNop(),
	}, audit
}

func TestInviteUser(t *testing.T) {
	f := newFakeProfileStore()
	svc, audit := newUserService(f, stubLimits{})

	profile, err := svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{
		Email: "new@example.com",
		Role:  "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", profile.Role)
	assert.Equal(t, "org-1", profile.OrgID)

	stored, err := f.GetProfile(context.Background(), "org-1", profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "invite", audit.entries[0].Action)
	assert.Equal(t, "user", audit.entries[0].EntityType)
	assert.Equal(t, "manager", audit.entries[0].Metadata["role"])
}

func TestInviteUserDefaultsToStaff(t *testing.T) {
	svc, _ := newUserService(newFakeProfileStore(), stubLimits{})

	profile, err := svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{
		Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "staff", profile.Role)
}

func TestInviteUserRejectedByLimit(t *testing.T) {
	f := newFakeProfileStore()
	svc, audit := newUserService(f, stubLimits{denied: map[string]bool{"users": true}})

	_, err := svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{
		Email: "new@example.com",
	})
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "users", limitErr.Key)
	assert.Empty(t, f.profiles, "no profile is created when the gate rejects")
	assert.Empty(t, audit.entries)
}

func TestInviteUserValidation(t *testing.T) {
	svc, _ := newUserService(newFakeProfileStore(), stubLimits{})

	_, err := svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{Role: "staff"})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "email", validation.Field)

	_, err = svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{
		Email: "new@example.com",
		Role:  "superuser",
	})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "role", validation.Field)
}

func TestInviteUserCannotGrantOwnership(t *testing.T) {
	svc, _ := newUserService(newFakeProfileStore(), stubLimits{})

	_, err := svc.InviteUser(context.Background(), testTenant(), &InviteUserRequest{
		Email: "new@example.com",
		Role:  "owner",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignRole(t *testing.T) {
	f := newFakeProfileStore()
	f.profiles["p-1"] = &models.Profile{ID: "p-1", OrgID: "org-1", Email: "m@example.com", Role: "staff"}
	svc, audit := newUserService(f, stubLimits{})

	profile, err := svc.AssignRole(context.Background(), testTenant(), "p-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Role)
	assert.Equal(t, "admin", f.profiles["p-1"].Role)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "role_change", audit.entries[0].Action)
	assert.Equal(t, "p-1", audit.entries[0].EntityID)
}

func TestAssignRoleProtectsOwner(t *testing.T) {
	f := newFakeProfileStore()
	f.profiles["p-owner"] = &models.Profile{ID: "p-owner", OrgID: "org-1", Email: "o@example.com", Role: "owner"}
	svc, audit := newUserService(f, stubLimits{})

	_, err := svc.AssignRole(context.Background(), testTenant(), "p-owner", "staff")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "owner", f.profiles["p-owner"].Role)
	assert.Empty(t, audit.entries)
}

func TestAssignRoleUnknownProfile(t *testing.T) {
	svc, _ := newUserService(newFakeProfileStore(), stubLimits{})

	_, err := svc.AssignRole(context.Background(), testTenant(), "missing", "staff")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssignRoleCrossTenant(t *testing.T) {
	f := newFakeProfileStore()
	f.profiles["p-2"] = &models.Profile{ID: "p-2", OrgID: "org-2", Email: "x@example.com", Role: "staff"}
	svc, _ := newUserService(f, stubLimits{})

	_, err := svc.AssignRole(context.Background(), testTenant(), "p-2", "admin")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "staff", f.profiles["p-2"].Role)
}
