package landing

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"finitefield.org/care-portal/internal/portal/templates/helpers"
	"finitefield.org/care-portal/internal/portal/templates/layout"
)

// Page renders the landing page with the signed-in identity and a logout form.
func Page(data PageData) templ.Component {
	logoutPath := data.LogoutPath
	if logoutPath == "" {
		logoutPath = "/logout"
	}
	return layout.Page(layout.PageData{
		Title:         data.Title,
		CSRFToken:     data.CSRFToken,
		Environment:   data.Environment,
		Notifications: data.Notifications,
	}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<section class="card landing"`)
		h.Attr("data-landing", data.Role.String())
		h.Raw(`><header class="card-header"><h1 class="card-title">`)
		h.Text(data.Heading)
		h.Raw(`</h1><p class="card-description">Signed in as <strong data-user-email>`)
		h.Text(data.Email)
		h.Raw(`</strong> <span class="badge" data-user-role>`)
		h.Text(data.Role.Label())
		h.Raw(`</span></p></header>`)

		h.Raw(`<form method="post" data-logout-form`)
		h.Attr("action", logoutPath)
		h.Raw(`><input type="hidden" name="_csrf"`)
		h.Attr("value", data.CSRFToken)
		h.Raw(`><button type="submit" class="btn btn-secondary">Log out</button></form></section>`)
		return h.Err()
	}))
}
