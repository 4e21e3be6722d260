package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/care-portal/internal/portal/observability"
	"finitefield.org/care-portal/internal/portal/rbac"
	appsession "finitefield.org/care-portal/internal/portal/session"
)

type authContextKey string

const userContextKey authContextKey = "auth.user"

// RequireUser redirects to loginPath unless the session carries a signed-in
// user, which is then exposed through UserFromContext.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || sess.User() == nil {
				handleUnauthorized(w, r, loginPath)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, sess.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole aborts the request with 403 Forbidden when the signed-in user
// holds none of the provided roles. It must run after RequireUser.
func RequireRole(required ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				forbidden(w, r)
				return
			}
			if !rbac.Allows(user.Role, required...) {
				observability.FromContext(r.Context()).Warn("role not permitted",
					zap.String("role", user.Role.String()),
					zap.String("path", r.URL.Path),
				)
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext retrieves the signed-in user if present.
func UserFromContext(ctx context.Context) (*appsession.User, bool) {
	user, ok := ctx.Value(userContextKey).(*appsession.User)
	return user, ok && user != nil
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", loginPath)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Refresh", "true")
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
