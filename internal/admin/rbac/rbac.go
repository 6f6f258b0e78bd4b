package rbac

import "strings"

// Role is a staff access tier.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Capability is a discrete permission checked by handlers and templates.
type Capability string

const (
	CapIntroductionsView   Capability = "introductions.view"
	CapIntroductionsEdit   Capability = "introductions.edit"
	CapIntroductionsCreate Capability = "introductions.create"
	CapIntroductionsDelete Capability = "introductions.delete"
)

var capabilityRoles = map[Capability]Roles{
	CapIntroductionsView:   {RoleAdmin, RoleEditor, RoleViewer},
	CapIntroductionsEdit:   {RoleAdmin, RoleEditor},
	CapIntroductionsCreate: {RoleAdmin, RoleEditor},
	CapIntroductionsDelete: {RoleAdmin},
}

// Roles is a role set.
type Roles []Role

// Has reports whether role is in the set.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether any candidate role is in the set.
func (rs Roles) Intersects(candidate Roles) bool {
	for _, role := range candidate {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// NormaliseRoles lower-cases, trims and de-duplicates raw role strings.
func NormaliseRoles(raw []string) Roles {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(raw))
	roles := make(Roles, 0, len(raw))
	for _, val := range raw {
		role := Role(strings.ToLower(strings.TrimSpace(val)))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// HasCapability reports whether the roles grant the capability. Admins hold every defined capability;
// unknown capabilities are denied to everyone.
func HasCapability(userRoles []string, capability Capability) bool {
	if capability == "" {
		return true
	}
	allowed, ok := capabilityRoles[capability]
	if !ok {
		return false
	}
	roles := NormaliseRoles(userRoles)
	if roles.Has(RoleAdmin) {
		return true
	}
	return allowed.Intersects(roles)
}

// Capabilities enumerates the capabilities held by the roles.
func Capabilities(userRoles []string) map[Capability]bool {
	caps := make(map[Capability]bool, len(capabilityRoles))
	for capability := range capabilityRoles {
		if HasCapability(userRoles, capability) {
			caps[capability] = true
		}
	}
	return caps
}

// Known reports whether role is one of the defined staff tiers.
func Known(role Role) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}
