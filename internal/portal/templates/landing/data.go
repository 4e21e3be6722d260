package landing

import (
	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/rbac"
)

// PageData describes a role landing page.
type PageData struct {
	Title         string
	Heading       string
	Email         string
	Role          rbac.Role
	LogoutPath    string
	CSRFToken     string
	Environment   string
	Notifications []notify.Notification
}

// ForRole returns the title and heading of the landing page a role lands on.
func ForRole(role rbac.Role) (title, heading string) {
	switch role {
	case rbac.RoleAdmin:
		return "Admin dashboard", "Administration"
	case rbac.RoleHealthProvider:
		return "Provider dashboard", "Your patients"
	default:
		return "Profile", "Your profile"
	}
}
