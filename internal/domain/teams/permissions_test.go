package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowed(t *testing.T) {
	cases := []struct {
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{RoleOwner, ResourceTeam, ActionDelete, true},
		{RoleOwner, ResourceBilling, ActionRead, true},
		{RoleAdmin, ResourceTeam, ActionDelete, false},
		{RoleAdmin, ResourceTeam, ActionUpdate, true},
		{RoleAdmin, ResourceMembers, ActionDelete, true},
		{RoleAdmin, ResourceInvitations, ActionCreate, true},
		{RoleMember, ResourceTeam, ActionRead, true},
		{RoleMember, ResourceTeam, ActionLeave, true},
		{RoleMember, ResourceTeam, ActionUpdate, false},
		{RoleMember, ResourceMembers, ActionRead, true},
		{RoleMember, ResourceMembers, ActionDelete, false},
		{RoleMember, ResourceInvitations, ActionCreate, false},
		{RoleMember, ResourceBilling, ActionRead, false},
		{Role("GUEST"), ResourceTeam, ActionRead, false},
	}
	for _, tc := range cases {
		got := IsAllowed(tc.role, tc.resource, tc.action)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.action, tc.resource)
	}
}

func TestCanDeleteInvitation(t *testing.T) {
	inv := Invitation{InvitedBy: "u1"}
	assert.True(t, CanDeleteInvitation(RoleAdmin, "u2", inv))
	assert.True(t, CanDeleteInvitation(RoleMember, "u1", inv))
	assert.False(t, CanDeleteInvitation(RoleMember, "u2", inv))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "boston-buyers", Slugify("Boston Buyers!"))
	assert.Equal(t, "a-b", Slugify("  A -- B  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(RoleOwner, RoleAdmin, RoleOwner))
	assert.True(t, CanAssignRole(RoleOwner, RoleOwner, RoleMember))
	assert.True(t, CanAssignRole(RoleAdmin, RoleMember, RoleAdmin))
	assert.True(t, CanAssignRole(RoleAdmin, "", RoleMember))
	assert.False(t, CanAssignRole(RoleAdmin, RoleAdmin, RoleOwner))
	assert.False(t, CanAssignRole(RoleAdmin, RoleOwner, RoleMember))
	assert.False(t, CanAssignRole(RoleAdmin, RoleOwner, ""))
	assert.False(t, CanAssignRole(RoleAdmin, "", RoleOwner))
}
