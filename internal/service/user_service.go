package service

import (
	"context"
	"strings"

	"inventra-server/internal/auth"
	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileStore is the persistence surface of member management
type ProfileStore interface {
	GetProfiles(ctx context.Context, orgID string) ([]models.Profile, error)
	GetProfile(ctx context.Context, orgID, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfileRole(ctx context.Context, orgID, id, role string) error
}

// Roles an admin may hand out. Ownership is established when the tenant is
// created and never reassigned through this surface.
var assignableRoles = map[string]bool{
	"staff":   true,
	"manager": true,
	"admin":   true,
}

// UserService manages a tenant's members: invites are gated by the plan's
// users limit, and role changes never touch the owner.
type UserService struct {
	store  ProfileStore
	limits LimitChecker
	audit  Auditor
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(st *store.Store, limits LimitChecker, audit Auditor) *UserService {
	return &UserService{
		store:  st,
		limits: limits,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// InviteUserRequest adds a member; role defaults to staff when omitted
type InviteUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteUser creates a member profile after the users gate. The auth provider
// delivers the actual invitation out of band; this records the membership and
// role the invitee will hold.
func (us *UserService) InviteUser(ctx context.Context, tenant *auth.Context, req *InviteUserRequest) (*models.Profile, error) {
	ctx, span := util.StartSpan(ctx, "UserService.InviteUser")
	defer span.End()

	if strings.TrimSpace(req.Email) == "" {
		return nil, validationErr("email", "Email is required")
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = "staff"
	}
	if err := validateAssignableRole(role); err != nil {
		return nil, err
	}

	if err := enforceLimit(ctx, us.limits, tenant.OrgID, "users"); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:    uuid.New().String(),
		OrgID: tenant.OrgID,
		Email: req.Email,
		Role:  role,
	}
	if err := us.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	us.logger.Info("Member invited",
		zap.String("org_id", tenant.OrgID),
		zap.String("profile_id", profile.ID),
		zap.String("role", role))

	us.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "user",
		EntityID:   profile.ID,
		Action:     "invite",
		Metadata:   models.Metadata{"email": req.Email, "role": role},
	})
	return profile, nil
}

// AssignRole changes a member's role. The owner's role cannot be changed, and
// ownership cannot be granted.
func (us *UserService) AssignRole(ctx context.Context, tenant *auth.Context, id, role string) (*models.Profile, error) {
	ctx, span := util.StartSpan(ctx, "UserService.AssignRole")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, validationErr("id", "Missing id")
	}
	if err := validateAssignableRole(role); err != nil {
		return nil, err
	}

	target, err := us.store.GetProfile(ctx, tenant.OrgID, id)
	if err != nil {
		return nil, err
	}
	if target.Role == "owner" {
		return nil, ErrForbidden
	}

	if err := us.store.UpdateProfileRole(ctx, tenant.OrgID, id, role); err != nil {
		return nil, err
	}
	target.Role = role

	us.audit.Record(ctx, AuditEntry{
		OrgID:      tenant.OrgID,
		ActorID:    tenant.UserID,
		EntityType: "user",
		EntityID:   id,
		Action:     "role_change",
		Metadata:   models.Metadata{"role": role},
	})
	return target, nil
}

// GetUsers lists the tenant's members
func (us *UserService) GetUsers(ctx context.Context, tenant *auth.Context) ([]models.Profile, error) {
	return us.store.GetProfiles(ctx, tenant.OrgID)
}

func validateAssignableRole(role string) error {
	if assignableRoles[role] {
		return nil
	}
	if role == "owner" {
		return ErrForbidden
	}
	return validationErr("role", "Role must be staff, manager or admin")
}

var _ ProfileStore = (*store.Store)(nil)
