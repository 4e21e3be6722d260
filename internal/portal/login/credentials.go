package login

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form field names exposed by the login markup.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Credentials is the email/password pair submitted for one attempt. It is
// never persisted.
type Credentials struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// String keeps the password out of formatted output.
func (c Credentials) String() string {
	return "Credentials{Email:" + c.Email + " Password:[redacted]}"
}

// GoString keeps the password out of %#v output.
func (c Credentials) GoString() string {
	return c.String()
}

// Values encodes the credentials as form values.
func (c Credentials) Values() url.Values {
	return url.Values{
		FieldEmail:    {c.Email},
		FieldPassword: {c.Password},
	}
}

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

var fieldMessages = map[string]map[string]string{
	FieldEmail: {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	FieldPassword: {
		"required": "Password is required",
	},
}

// Schema validates raw login form values.
type Schema struct {
	validate *validator.Validate
}

// NewSchema constructs the login validation schema.
func NewSchema() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Schema{validate: v}
}

// Parse builds Credentials from form values and validates them. A nil
// FieldErrors means the credentials are valid.
func (s *Schema) Parse(values url.Values) (Credentials, FieldErrors) {
	creds := Credentials{
		Email:    strings.TrimSpace(values.Get(FieldEmail)),
		Password: values.Get(FieldPassword),
	}
	return creds, s.Validate(creds)
}

// Validate checks the credentials against the schema.
func (s *Schema) Validate(creds Credentials) FieldErrors {
	err := s.validate.Struct(creds)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{FieldEmail: "Invalid form submission"}
	}

	result := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := result[field]; exists {
			continue
		}
		result[field] = messageFor(field, fe.Tag())
	}
	return result
}

func messageFor(field, tag string) string {
	if byTag, ok := fieldMessages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return "Invalid value"
}
