package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleStaff))
	assert.True(t, RoleStaff.AtLeast(RoleStaff))

	assert.False(t, RoleStaff.AtLeast(RoleManager))
	assert.False(t, RoleManager.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleOwner))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ParseRole("owner"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleManager, ParseRole("manager"))
	assert.Equal(t, RoleStaff, ParseRole("staff"))
	assert.Equal(t, RoleStaff, ParseRole("garbage"), "unknown roles get the least privilege")
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "owner", RoleOwner.String())
	assert.Equal(t, "unknown", Role(42).String())
}

func TestContextRoundTrip(t *testing.T) {
	tenant := &Context{OrgID: "org-1", UserID: "user-1", Role: RoleManager}

	ctx := WithContext(context.Background(), tenant)
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, tenant, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
