package auth

import (
	"context"
	"fmt"
)

// Role is an ordered privilege level. Higher roles are strict supersets of
// lower ones, so a single AtLeast comparison replaces per-endpoint allow-lists.
type Role int

const (
	RoleStaff Role = iota
	RoleManager
	RoleAdmin
	RoleOwner
)

var roleNames = map[Role]string{
	RoleStaff:   "staff",
	RoleManager: "manager",
	RoleAdmin:   "admin",
	RoleOwner:   "owner",
}

var rolesByName = map[string]Role{
	"staff":   RoleStaff,
	"manager": RoleManager,
	"admin":   RoleAdmin,
	"owner":   RoleOwner,
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// AtLeast reports whether r carries at least the privilege of min
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole maps a stored role string to a Role, defaulting to staff
func ParseRole(name string) Role {
	if r, ok := rolesByName[name]; ok {
		return r
	}
	return RoleStaff
}

// Context identifies the authenticated caller and their tenant. Every store
// operation takes the org id from here; tenant isolation is not optional.
type Context struct {
	OrgID  string
	UserID string
	Role   Role
}

// TokenResolver turns a bearer credential into an authenticated tenant
// context. The hosted auth provider is an external collaborator; this is the
// only seam the rest of the service sees.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*Context, error)
}

// ErrUnauthenticated is returned by resolvers for invalid or expired tokens
var ErrUnauthenticated = fmt.Errorf("unauthenticated")

type ctxKey struct{}

// WithContext attaches the authenticated context to a request context
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext retrieves the authenticated context, if any
func FromContext(ctx context.Context) (*Context, bool) {
	ac, ok := ctx.Value(ctxKey{}).(*Context)
	return ac, ok
}
