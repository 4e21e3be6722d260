package httpserver

import (
	"net/http"

	custommw "finitefield.org/care-portal/internal/portal/httpserver/middleware"
	"finitefield.org/care-portal/internal/portal/rbac"
	"finitefield.org/care-portal/internal/portal/templates/landing"
)

type landingHandlers struct {
	logoutPath string
}

func newLandingHandlers(logoutPath string) *landingHandlers {
	return &landingHandlers{logoutPath: logoutPath}
}

// Page returns the handler for the landing page belonging to area. Access has
// already been checked by the route middleware.
func (h *landingHandlers) Page(area rbac.Role) http.HandlerFunc {
	title, heading := landing.ForRole(area)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, ok := custommw.UserFromContext(ctx)
		if !ok {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		data := landing.PageData{
			Title:       title,
			Heading:     heading,
			Email:       user.Email,
			Role:        user.Role,
			LogoutPath:  h.logoutPath,
			CSRFToken:   custommw.CSRFTokenFromContext(ctx),
			Environment: custommw.EnvironmentFromContext(ctx),
		}
		if sess, ok := custommw.SessionFromContext(ctx); ok {
			data.Notifications = sess.TakeNotifications()
		}
		render(w, r, landing.Page(data), http.StatusOK)
	}
}
