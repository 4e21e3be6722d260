package helpers

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HTML writes markup to an io.Writer, escaping text and attribute values and
// keeping the first write error.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup verbatim.
func (h *HTML) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes escaped text content.
func (h *HTML) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped.
func (h *HTML) Attr(name, value string) {
	h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// AttrIf writes the attribute only when value is non-empty.
func (h *HTML) AttrIf(name, value string) {
	if value != "" {
		h.Attr(name, value)
	}
}

// Flag writes a boolean attribute when on is true.
func (h *HTML) Flag(name string, on bool) {
	if on {
		h.Raw(" " + name)
	}
}

// Component renders a nested templ component.
func (h *HTML) Component(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Err returns the first write error.
func (h *HTML) Err() error {
	return h.err
}
