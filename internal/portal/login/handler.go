package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/care-portal/internal/portal/notify"
	"finitefield.org/care-portal/internal/portal/observability"
	"finitefield.org/care-portal/internal/portal/rbac"
)

// NotificationKey groups the notifications of one login attempt so each
// replaces the previous.
const NotificationKey = "login"

const (
	LoadingMessage = "Logging in..."
	SuccessMessage = "Logged in successfully"
)

const tracerName = "finitefield.org/care-portal/internal/portal/login"

// Authenticator is the external collaborator that checks credentials.
type Authenticator interface {
	SignIn(ctx context.Context, creds Credentials) (Response, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (Response, error)

// SignIn implements Authenticator.
func (f AuthenticatorFunc) SignIn(ctx context.Context, creds Credentials) (Response, error) {
	return f(ctx, creds)
}

// Notifier receives transient notifications about an attempt.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n notify.Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n notify.Notification) {
	f(ctx, n)
}

// Navigator performs a push-style route change.
type Navigator interface {
	Push(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

// Push implements Navigator.
func (f NavigatorFunc) Push(ctx context.Context, path string) {
	f(ctx, path)
}

// Handler orchestrates a single login attempt against the authenticator.
type Handler struct {
	auth   Authenticator
	tracer trace.Tracer
}

// NewHandler constructs a Handler backed by the provided authenticator.
func NewHandler(auth Authenticator) *Handler {
	if auth == nil {
		panic("login: authenticator is required")
	}
	return &Handler{
		auth:   auth,
		tracer: otel.Tracer(tracerName),
	}
}

// Handle runs one attempt and reports the outcome through notifier, nav and
// state. It never returns an error: every failure becomes a Failure.
func (h *Handler) Handle(ctx context.Context, creds Credentials, state *FormState, notifier Notifier, nav Navigator) Result {
	state.SubmitError = ""
	state.IsLoading = true
	defer func() { state.IsLoading = false }()

	logger := observability.FromContext(ctx).With(
		zap.String("attempt_id", uuid.NewString()),
		zap.String("email", observability.MaskEmail(creds.Email)),
	)

	notifier.Notify(ctx, notify.Notification{Key: NotificationKey, Kind: notify.KindLoading, Message: LoadingMessage})

	ctx, span := h.tracer.Start(ctx, "login.signin")
	defer span.End()

	resp, err := h.signIn(ctx, creds)
	if err == nil && resp.Error != "" {
		err = Reject(resp.Error)
	}
	if err != nil {
		message := FailureMessage(err)
		var rejection *Rejection
		if errors.As(err, &rejection) {
			logger.Warn("login rejected", zap.Error(err), zap.String("message", message))
		} else {
			logger.Error("login failed", zap.Error(err))
		}
		span.SetAttributes(attribute.String("login.outcome", "failure"))
		span.SetStatus(codes.Error, message)

		notifier.Notify(ctx, notify.Notification{Key: NotificationKey, Kind: notify.KindError, Message: message})
		state.SubmitError = message
		return Failure{Message: message}
	}

	notifier.Notify(ctx, notify.Notification{Key: NotificationKey, Kind: notify.KindSuccess, Message: SuccessMessage})

	role := rbac.ParseRole(resp.Role)
	destination := rbac.Destination(role)
	span.SetAttributes(
		attribute.String("login.outcome", "success"),
		attribute.String("login.role", role.String()),
	)
	logger.Info("login succeeded",
		zap.String("role", role.String()),
		zap.String("raw_role", resp.Role),
		zap.String("destination", destination),
	)

	nav.Push(ctx, destination)
	return Success{Role: role, Destination: destination}
}

func (h *Handler) signIn(ctx context.Context, creds Credentials) (resp Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = Response{}
			err = fmt.Errorf("login: authenticator panic: %v", rec)
		}
	}()
	return h.auth.SignIn(ctx, creds)
}
