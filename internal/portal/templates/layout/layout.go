package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/templates/helpers"
)

const appName = "Care Portal"

// PageData carries the chrome shared by every full page.
type PageData struct {
	Title         string
	CSRFToken     string
	Environment   string
	Notifications []notify.Notification
}

// Page wraps body in the HTML document shell.
func Page(data PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		title := appName
		if data.Title != "" {
			title = data.Title + " | " + appName
		}

		h.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw(`<meta name="csrf-token"`)
		h.Attr("content", data.CSRFToken)
		h.Raw(`><title>`)
		h.Text(title)
		h.Raw(`</title><link rel="stylesheet" href="/public/static/portal.css">`)
		h.Raw(`<script src="https://unpkg.com/htmx.org@1.9.12" defer></script>`)
		h.Raw(`<script src="/public/static/portal.js" defer></script></head><body`)
		h.Attr("data-environment", data.Environment)
		h.Raw(`><main class="shell">`)
		h.Component(ctx, body)
		h.Raw(`</main>`)
		h.Component(ctx, Toasts(data.Notifications))
		h.Raw(`</body></html>`)
		return h.Err()
	})
}

// Toasts renders the notification region. Each toast carries its key so a
// later client-side notification with the same key replaces it.
func Toasts(items []notify.Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<div id="toasts" class="toasts" aria-live="polite" data-toasts>`)
		for _, n := range items {
			h.Raw(`<div role="status"`)
			h.Attr("class", "toast toast-"+string(n.Kind))
			h.Attr("data-toast-key", n.Key)
			h.Attr("data-toast-kind", string(n.Kind))
			h.Raw(`>`)
			h.Text(n.Message)
			h.Raw(`</div>`)
		}
		h.Raw(`</div>`)
		return h.Err()
	})
}
