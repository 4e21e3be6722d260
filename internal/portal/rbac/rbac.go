package rbac

import (
	"strings"
)

// Role represents the server-assigned category of a signed-in user.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleHealthProvider Role = "HEALTH_PROVIDER"
	// RoleUser covers every role value the portal has no dedicated area for,
	// including an absent role.
	RoleUser Role = "USER"
)

// Destination paths reached after a successful login.
const (
	AdminDashboardPath          = "/admin/dashboard"
	HealthProviderDashboardPath = "/healthproviders/dashboard"
	UserProfilePath             = "/users/profile"
)

// Roles enumerates every role the portal distinguishes.
var Roles = []Role{RoleAdmin, RoleHealthProvider, RoleUser}

// ParseRole normalises a raw role value to upper case and maps it onto a known
// Role. Unknown and empty values resolve to RoleUser.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(raw)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleHealthProvider:
		return RoleHealthProvider
	default:
		return RoleUser
	}
}

// Destination returns the landing path for the role.
func Destination(role Role) string {
	switch role {
	case RoleAdmin:
		return AdminDashboardPath
	case RoleHealthProvider:
		return HealthProviderDashboardPath
	case RoleUser:
		return UserProfilePath
	default:
		return UserProfilePath
	}
}

// DestinationFor resolves the landing path straight from a raw role value.
func DestinationFor(raw string) string {
	return Destination(ParseRole(raw))
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Label returns a human readable name for templates.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleHealthProvider:
		return "Health provider"
	default:
		return "Member"
	}
}

// Allows reports whether the role may open a page restricted to the required
// roles. An empty requirement admits every role.
func Allows(role Role, required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
