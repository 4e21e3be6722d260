package auth

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"finitefield.org/care-portal/internal/portal/login"
	"finitefield.org/care-portal/internal/portal/templates/helpers"
	"finitefield.org/care-portal/internal/portal/templates/layout"
)

// LoginPage renders the full login document.
func LoginPage(data LoginPageData) templ.Component {
	return layout.Page(layout.PageData{
		Title:         "Login",
		CSRFToken:     data.CSRFToken,
		Environment:   data.Environment,
		Notifications: data.Notifications,
	}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<section class="card login-card"><header class="card-header">`)
		h.Raw(`<h1 class="card-title">Login to your account</h1>`)
		h.Raw(`<p class="card-description">Enter your email below to login to your account</p></header>`)
		if data.Message != "" {
			h.Raw(`<p class="notice" role="status" data-login-message>`)
			h.Text(data.Message)
			h.Raw(`</p>`)
		}
		h.Component(ctx, LoginForm(data))
		h.Raw(`<p class="card-footer">Don&#39;t have an account? <a data-register-link`)
		h.Attr("href", RegisterPath)
		h.Raw(`>Sign up</a></p></section>`)
		return h.Err()
	}))
}

// LoginForm renders the form alone. htmx submissions swap it in place.
func LoginForm(data LoginPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		form := data.Form
		h := helpers.NewHTML(w)

		h.Raw(`<form id="login-form" class="login-form" method="post" novalidate data-login-form`)
		h.Attr("action", data.loginPath())
		h.Attr("hx-post", data.loginPath())
		h.Raw(` hx-target="this" hx-swap="outerHTML" hx-disabled-elt="find button[type=submit]"`)
		if form.IsLoading {
			h.Raw(` aria-busy="true"`)
		}
		h.Raw(`>`)

		h.Raw(`<input type="hidden" name="_csrf"`)
		h.Attr("value", data.CSRFToken)
		h.Raw(`>`)

		h.Raw(`<div class="form-error" role="alert" data-submit-error>`)
		h.Text(form.SubmitError)
		h.Raw(`</div>`)

		field(h, fieldSpec{
			name:        login.FieldEmail,
			label:       "Email",
			kind:        "email",
			value:       form.Email,
			placeholder: "m@example.com",
			auto:        "email",
			err:         form.FieldError(login.FieldEmail),
		})

		h.Raw(`<div class="field-header"><label for="password">Password</label><a class="forgot-link" data-forgot-password`)
		h.Attr("href", ForgotPasswordPath)
		h.Raw(`>Forgot your password?</a></div>`)
		field(h, fieldSpec{
			name: login.FieldPassword,
			kind: "password",
			auto: "current-password",
			err:  form.FieldError(login.FieldPassword),
		})

		h.Raw(`<button type="submit" class="btn btn-primary" data-submit`)
		h.Attr("data-loading-label", login.LoadingMessage)
		h.Flag("disabled", form.IsLoading)
		h.Raw(`>`)
		h.Text(form.SubmitLabel())
		h.Raw(`</button></form>`)
		return h.Err()
	})
}

type fieldSpec struct {
	name        string
	label       string
	kind        string
	value       string
	placeholder string
	auto        string
	err         string
}

func field(h *helpers.HTML, f fieldSpec) {
	errID := f.name + "-error"
	h.Raw(`<div class="field"`)
	h.Attr("data-field", f.name)
	h.Raw(`>`)
	if f.label != "" {
		h.Raw(`<label`)
		h.Attr("for", f.name)
		h.Raw(`>`)
		h.Text(f.label)
		h.Raw(`</label>`)
	}
	h.Raw(`<input`)
	h.Attr("id", f.name)
	h.Attr("name", f.name)
	h.Attr("type", f.kind)
	h.AttrIf("value", f.value)
	h.AttrIf("placeholder", f.placeholder)
	h.AttrIf("autocomplete", f.auto)
	if f.err != "" {
		h.Raw(` aria-invalid="true"`)
		h.Attr("aria-describedby", errID)
	}
	h.Raw(`>`)
	if f.err != "" {
		h.Raw(`<p class="field-error"`)
		h.Attr("id", errID)
		h.Attr("data-field-error", f.name)
		h.Raw(`>`)
		h.Text(f.err)
		h.Raw(`</p>`)
	}
	h.Raw(`</div>`)
}
