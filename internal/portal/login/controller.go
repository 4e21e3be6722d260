package login

import (
	"context"
	"errors"
	"net/url"
)

var (
	// ErrInvalidForm is returned when the submitted values fail validation.
	ErrInvalidForm = errors.New("login: invalid form")
	// ErrSubmissionInFlight is returned when the owner already has a pending attempt.
	ErrSubmissionInFlight = errors.New("login: submission already in flight")
)

// Controller binds raw form values to the schema and forwards valid
// submissions to the Handler, one at a time per owner.
type Controller struct {
	schema  *Schema
	handler *Handler
	gate    *Gate
}

// NewController constructs a Controller around the handler.
func NewController(handler *Handler) *Controller {
	if handler == nil {
		panic("login: handler is required")
	}
	return &Controller{
		schema:  NewSchema(),
		handler: handler,
		gate:    NewGate(),
	}
}

// Submit validates values and, when valid, runs the handler. Invalid input
// fills state.FieldErrors and returns ErrInvalidForm without contacting the
// authenticator. A second submit from an owner with a pending attempt returns
// ErrSubmissionInFlight and leaves state in its loading form.
func (c *Controller) Submit(ctx context.Context, owner string, values url.Values, state *FormState, notifier Notifier, nav Navigator) (Result, error) {
	creds, fieldErrors := c.schema.Parse(values)
	state.Email = creds.Email
	state.FieldErrors = nil

	if len(fieldErrors) > 0 {
		state.FieldErrors = fieldErrors
		return nil, ErrInvalidForm
	}

	release, ok := c.gate.TryAcquire(owner)
	if !ok {
		state.IsLoading = true
		return nil, ErrSubmissionInFlight
	}
	defer release()

	return c.handler.Handle(ctx, creds, state, notifier, nav), nil
}

// Pending reports whether owner has an attempt in flight.
func (c *Controller) Pending(owner string) bool {
	return c.gate.Held(owner)
}
