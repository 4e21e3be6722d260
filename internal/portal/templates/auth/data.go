package auth

import (
	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/notify"
)

// Link targets rendered under the form. Both pages live outside this service.
const (
	ForgotPasswordPath = "#"
	RegisterPath       = "/auth/register"
)

// LoginPageData encapsulates rendering state for the login screen.
type LoginPageData struct {
	Form          login.FormState
	Message       string
	LoginPath     string
	CSRFToken     string
	Environment   string
	Notifications []notify.Notification
}

func (d LoginPageData) loginPath() string {
	if d.LoginPath == "" {
		return "/login"
	}
	return d.LoginPath
}
