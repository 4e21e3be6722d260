package auth

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/notify"
)

func TestLoginPageRendersForm(t *testing.T) {
	t.Parallel()

	doc := render(t, LoginPage(LoginPageData{CSRFToken: "tok-123"}))

	require.Equal(t, "Login to your account", strings.TrimSpace(doc.Find("h1").Text()))

	form := doc.Find("form[data-login-form]")
	require.Equal(t, 1, form.Length())
	require.Equal(t, "/login", form.AttrOr("action", ""))
	require.Equal(t, "/login", form.AttrOr("hx-post", ""))

	email := form.Find("input[name=email]")
	require.Equal(t, "email", email.AttrOr("type", ""))
	require.Equal(t, "m@example.com", email.AttrOr("placeholder", ""))
	require.Equal(t, "password", form.Find("input[name=password]").AttrOr("type", ""))
	require.Equal(t, "tok-123", form.Find("input[name=_csrf]").AttrOr("value", ""))

	button := form.Find("button[data-submit]")
	require.Equal(t, "Login", strings.TrimSpace(button.Text()))
	_, disabled := button.Attr("disabled")
	require.False(t, disabled)

	require.Equal(t, "Forgot your password?", strings.TrimSpace(doc.Find("[data-forgot-password]").Text()))
	require.Equal(t, RegisterPath, doc.Find("[data-register-link]").AttrOr("href", ""))
	require.Equal(t, "tok-123", doc.Find("meta[name=csrf-token]").AttrOr("content", ""))
}

func TestLoginFormRendersErrors(t *testing.T) {
	t.Parallel()

	doc := render(t, LoginForm(LoginPageData{Form: login.FormState{
		Email:       "not-an-email<script>",
		FieldErrors: login.FieldErrors{login.FieldEmail: "Please enter a valid email address"},
		SubmitError: "Invalid credentials",
	}}))

	require.Equal(t, "not-an-email<script>", doc.Find("input[name=email]").AttrOr("value", ""))
	require.Equal(t, 0, doc.Find("script").Length(), "email must be escaped")
	require.Equal(t, "Please enter a valid email address", strings.TrimSpace(doc.Find("[data-field-error=email]").Text()))
	require.Equal(t, "true", doc.Find("input[name=email]").AttrOr("aria-invalid", ""))
	require.Equal(t, 0, doc.Find("[data-field-error=password]").Length())
	require.Equal(t, "Invalid credentials", strings.TrimSpace(doc.Find("[data-submit-error]").Text()))
	require.Equal(t, "", doc.Find("input[name=password]").AttrOr("value", ""))
}

func TestLoginFormLoadingState(t *testing.T) {
	t.Parallel()

	doc := render(t, LoginForm(LoginPageData{Form: login.FormState{IsLoading: true}}))

	button := doc.Find("button[data-submit]")
	require.Equal(t, "Logging in...", strings.TrimSpace(button.Text()))
	_, disabled := button.Attr("disabled")
	require.True(t, disabled)
	require.Equal(t, "true", doc.Find("form").AttrOr("aria-busy", ""))
}

func TestLoginPageRendersMessageAndToasts(t *testing.T) {
	t.Parallel()

	doc := render(t, LoginPage(LoginPageData{
		Message: "You have been logged out",
		Notifications: []notify.Notification{
			{Key: login.NotificationKey, Kind: notify.KindError, Message: "Failed to login"},
		},
	}))

	require.Equal(t, "You have been logged out", strings.TrimSpace(doc.Find("[data-login-message]").Text()))
	toast := doc.Find("[data-toasts] [data-toast-key=login]")
	require.Equal(t, 1, toast.Length())
	require.Equal(t, "error", toast.AttrOr("data-toast-kind", ""))
	require.Equal(t, "Failed to login", strings.TrimSpace(toast.Text()))
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}
