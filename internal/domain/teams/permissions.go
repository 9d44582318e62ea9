package teams

import "strings"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type Resource string

const (
	ResourceTeam        Resource = "team"
	ResourceMembers     Resource = "members"
	ResourceInvitations Resource = "invitations"
	ResourceBilling     Resource = "billing"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLeave  Action = "leave"
)

type permission struct {
	resource Resource
	actions  []Action // nil means every action
}

var permissions = map[Role][]permission{
	RoleOwner: {
		{resource: ResourceTeam},
		{resource: ResourceMembers},
		{resource: ResourceInvitations},
		{resource: ResourceBilling},
	},
	RoleAdmin: {
		{resource: ResourceTeam, actions: []Action{ActionRead, ActionUpdate, ActionLeave}},
		{resource: ResourceMembers},
		{resource: ResourceInvitations},
		{resource: ResourceBilling},
	},
	RoleMember: {
		{resource: ResourceTeam, actions: []Action{ActionRead, ActionLeave}},
		{resource: ResourceMembers, actions: []Action{ActionRead}},
	},
}

// IsAllowed reports whether role may perform action on resource.
func IsAllowed(role Role, resource Resource, action Action) bool {
	for _, p := range permissions[role] {
		if p.resource != resource {
			continue
		}
		if p.actions == nil {
			return true
		}
		for _, a := range p.actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// CanAssignRole reports whether caller may move a member from current to
// next. Granting or revoking OWNER is reserved to owners; current is empty
// for invitations.
func CanAssignRole(caller, current, next Role) bool {
	if current == RoleOwner || next == RoleOwner {
		return caller == RoleOwner
	}
	return true
}

// CanDeleteInvitation lets admins remove any invitation and members
// remove the ones they sent.
func CanDeleteInvitation(role Role, callerID string, inv Invitation) bool {
	if IsAllowed(role, ResourceInvitations, ActionDelete) {
		return true
	}
	return inv.InvitedBy == callerID
}

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	}
	return "", false
}
