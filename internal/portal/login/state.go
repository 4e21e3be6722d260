package login

// FormState tracks the login form between submit and resolution.
type FormState struct {
	// Email is echoed back into the form after a failed attempt.
	Email       string
	FieldErrors FieldErrors
	SubmitError string
	IsLoading   bool
}

// HasErrors reports whether any field or submission error is set.
func (s *FormState) HasErrors() bool {
	return len(s.FieldErrors) > 0 || s.SubmitError != ""
}

// FieldError returns the message for the named field.
func (s *FormState) FieldError(name string) string {
	if s == nil || s.FieldErrors == nil {
		return ""
	}
	return s.FieldErrors[name]
}

// SubmitLabel returns the submit control label for the current state.
func (s *FormState) SubmitLabel() string {
	if s != nil && s.IsLoading {
		return LoadingMessage
	}
	return "Login"
}
