package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field error messages
const (
	MsgUsernameAlphanumeric = "Username must be alphanumeric"
	MsgInvalidEmail         = "Invalid email format"
	MsgPasswordTooShort     = "Password must be at least 8 characters"
)

// Field paths as they appear in the request body
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// RegistrationInput is the raw registration payload as received from the client.
type RegistrationInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationRequest is a validated and sanitized registration.
type RegistrationRequest struct {
	Username string
	Email    string
	Password string
}

// FieldError describes a single invalid field.
type FieldError struct {
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Errors is the list of field errors produced by a validation pass.
type Errors []FieldError

// Error implements the error interface
func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Path+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether any error refers to the given field path.
func (e Errors) Has(path string) bool {
	for _, fe := range e {
		if fe.Path == path {
			return true
		}
	}
	return false
}

func newFieldError(path, value, msg string) FieldError {
	return FieldError{
		Type:     "field",
		Value:    value,
		Msg:      msg,
		Path:     path,
		Location: "body",
	}
}

// registrationFields carries the trimmed input through the validator.
// Field names resolve to their json tags so errors use body paths.
type registrationFields struct {
	Username string `json:"username" validate:"required,alphanum"`
	Email    string `json:"email" validate:"required,max=254,email,email_domain"`
	Password string `json:"password" validate:"min=8"`
}

var fieldMessages = map[string]string{
	FieldUsername: MsgUsernameAlphanumeric,
	FieldEmail:    MsgInvalidEmail,
	FieldPassword: MsgPasswordTooShort,
}

// ValidateRegistration checks every field of in and returns the sanitized request.
// All fields are checked so the caller gets the full list of problems at once.
// The returned request is only meaningful when the error list is empty.
func ValidateRegistration(in RegistrationInput) (RegistrationRequest, Errors) {
	fields := registrationFields{
		Username: strings.TrimSpace(in.Username),
		Email:    in.Email,
		Password: in.Password,
	}

	errs := fieldErrors(validate.Struct(fields), fields)

	email := ""
	if !errs.Has(FieldEmail) {
		var ok bool
		if email, ok = NormalizeEmail(fields.Email); !ok {
			errs = append(errs, newFieldError(FieldEmail, in.Email, MsgInvalidEmail))
		}
	}

	if len(errs) > 0 {
		return RegistrationRequest{}, errs
	}

	return RegistrationRequest{
		Username: fields.Username,
		Email:    email,
		Password: in.Password,
	}, nil
}

// fieldErrors maps validator failures to one FieldError per field
func fieldErrors(err error, fields registrationFields) Errors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	var errs Errors
	for _, fe := range verrs {
		path := fe.Field()
		if errs.Has(path) {
			continue
		}

		value := ""
		switch path {
		case FieldUsername:
			value = fields.Username
		case FieldEmail:
			value = fields.Email
		}
		// Password values are never echoed back.

		errs = append(errs, newFieldError(path, value, fieldMessages[path]))
	}
	return errs
}
