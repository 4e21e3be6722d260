package login

import (
	"errors"
	"strings"

	"finitefield.org/care-portal/internal/portal/rbac"
)

// DefaultFailureMessage is shown when a failed attempt carries no usable message.
const DefaultFailureMessage = "Failed to login"

// Response is what an authentication collaborator returns for a completed call.
// A non-empty Error marks the attempt as failed.
type Response struct {
	Error string `json:"error,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Result is the outcome of one login attempt: either Success or Failure.
type Result interface {
	isResult()
}

// Success carries the resolved role and the path the user was sent to.
type Success struct {
	Role        rbac.Role
	Destination string
}

// Failure carries the message surfaced to the user.
type Failure struct {
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// Rejection is returned by collaborators for failures that carry a message
// meant for the user.
type Rejection struct {
	Message string
	Err     error
}

// Reject builds a Rejection with the provided user-facing message.
func Reject(message string) error {
	return &Rejection{Message: message}
}

// Error implements the error interface.
func (e *Rejection) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "rejected"
	}
	if e.Err == nil {
		return "login: " + msg
	}
	return "login: " + msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Rejection) Unwrap() error {
	return e.Err
}

// FailureMessage picks the message shown to the user for err. Only rejections
// carry their own message; anything else falls back to DefaultFailureMessage.
func FailureMessage(err error) string {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		if msg := strings.TrimSpace(rejection.Message); msg != "" {
			return msg
		}
	}
	return DefaultFailureMessage
}
