package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "finitefield.org/care-portal/internal/portal/httpserver/middleware"
	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/observability"
	"finitefield.org/care-portal/internal/portal/rbac"
	appsession "finitefield.org/care-portal/internal/portal/session"
	"finitefield.org/care-portal/internal/portal/templates/auth"
)

// NotifyEvent is the client-side event carrying a notification for htmx requests.
const NotifyEvent = "portal:notify"

const (
	statusLoggedOut  = "logged_out"
	loggedOutMessage = "You have been logged out"
	badFormMessage   = "The form could not be read. Please try again."
)

type authHandlers struct {
	controller *login.Controller
	loginPath  string
	logoutPath string
}

func newAuthHandlers(controller *login.Controller, loginPath, logoutPath string) *authHandlers {
	if controller == nil {
		panic("auth: controller is required")
	}
	return &authHandlers{
		controller: controller,
		loginPath:  loginPath,
		logoutPath: logoutPath,
	}
}

func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(r); user != nil {
		http.Redirect(w, r, rbac.Destination(user.Role), http.StatusFound)
		return
	}

	data := h.buildLoginPageData(r, login.FormState{})
	if r.URL.Query().Get("status") == statusLoggedOut {
		data.Message = loggedOutMessage
	}
	h.renderLoginPage(w, r, data, http.StatusOK)
}

func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := custommw.SessionFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		observability.FromContext(ctx).Warn("login form parse failed", zap.Error(err))
		data := h.buildLoginPageData(r, login.FormState{SubmitError: badFormMessage})
		h.renderLoginPage(w, r, data, http.StatusBadRequest)
		return
	}

	var state login.FormState
	notifier := &responseNotifier{w: w, sess: sess, htmx: custommw.IsHTMXRequest(ctx)}
	nav := &recordingNavigator{}

	result, err := h.controller.Submit(ctx, sess.ID(), r.PostForm, &state, notifier, nav)
	switch {
	case errors.Is(err, login.ErrInvalidForm):
		h.renderLoginPage(w, r, h.buildLoginPageData(r, state), http.StatusBadRequest)
		return
	case errors.Is(err, login.ErrSubmissionInFlight):
		h.renderLoginPage(w, r, h.buildLoginPageData(r, state), http.StatusConflict)
		return
	}

	switch res := result.(type) {
	case login.Success:
		sess.SetUser(&appsession.User{Email: state.Email, Role: res.Role})
		h.navigate(w, r, nav.target(res.Destination))
	case login.Failure:
		h.renderLoginPage(w, r, h.buildLoginPageData(r, state), http.StatusUnauthorized)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}

	q := url.Values{}
	q.Set("status", statusLoggedOut)
	h.navigate(w, r, h.loginPath+"?"+q.Encode())
}

func (h *authHandlers) buildLoginPageData(r *http.Request, state login.FormState) auth.LoginPageData {
	ctx := r.Context()
	data := auth.LoginPageData{
		Form:        state,
		LoginPath:   h.loginPath,
		CSRFToken:   custommw.CSRFTokenFromContext(ctx),
		Environment: custommw.EnvironmentFromContext(ctx),
	}
	if sess, ok := custommw.SessionFromContext(ctx); ok {
		data.Notifications = sess.TakeNotifications()
	}
	return data
}

// renderLoginPage writes the full page, or only the form for htmx requests.
// htmx does not swap non-2xx responses, so fragments are always sent as 200.
func (h *authHandlers) renderLoginPage(w http.ResponseWriter, r *http.Request, data auth.LoginPageData, status int) {
	component := auth.LoginPage(data)
	if custommw.IsHTMXRequest(r.Context()) {
		component = auth.LoginForm(data)
		status = http.StatusOK
	}
	render(w, r, component, status)
}

func (h *authHandlers) navigate(w http.ResponseWriter, r *http.Request, target string) {
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func render(w http.ResponseWriter, r *http.Request, component templ.Component, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := component.Render(r.Context(), w); err != nil {
		observability.FromContext(r.Context()).Error("render failed", zap.Error(err))
	}
}

func currentUser(r *http.Request) *appsession.User {
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		return nil
	}
	return sess.User()
}

// responseNotifier stores notifications on the session board and, for htmx
// requests, mirrors the latest one to an HX-Trigger event.
type responseNotifier struct {
	w    http.ResponseWriter
	sess *appsession.Session
	htmx bool
}

func (n *responseNotifier) Notify(ctx context.Context, item notify.Notification) {
	n.sess.Notify(item)
	if !n.htmx {
		return
	}
	if err := custommw.TriggerEvent(n.w, NotifyEvent, item); err != nil {
		observability.FromContext(ctx).Warn("notification trigger failed", zap.Error(err))
	}
}

// recordingNavigator captures the pushed path. The response is written after
// the session has been updated with the signed-in user.
type recordingNavigator struct {
	path string
}

func (n *recordingNavigator) Push(_ context.Context, path string) {
	n.path = path
}

func (n *recordingNavigator) target(fallback string) string {
	if n.path != "" {
		return n.path
	}
	return fallback
}
