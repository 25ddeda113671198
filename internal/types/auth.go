// Package types provides type definitions for structured data used throughout the resumexpert client.
package types

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// credentialPattern is the character class accepted for usernames and passwords.
var credentialPattern = regexp.MustCompile(`^[A-Za-z0-9_.@#%-]+$`)

// Credential failure reasons.
var (
	ErrTooShort = errors.New("too short")
	ErrBadChars = errors.New("contains invalid characters")
)

// Credential failure kinds, matched with errors.Is against a *CredentialError.
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
)

// Credentials is a username/password pair submitted for login or registration.
type Credentials struct {
	Username string `json:"username" validate:"min=5,credchars"`
	Password string `json:"password" validate:"min=8,credchars"`
}

// CredentialError reports which credential failed validation and why.
type CredentialError struct {
	Field  string // "username" or "password"
	Reason error  // ErrTooShort or ErrBadChars
}

func (e *CredentialError) Error() string {
	switch {
	case e.Field == "username" && e.Reason == ErrTooShort:
		return "username must be at least 5 characters"
	case e.Field == "password" && e.Reason == ErrTooShort:
		return "password must be at least 8 characters"
	default:
		return e.Field + " contains invalid characters; only letters, numbers, underscore, dash, dot, and @#% are allowed"
	}
}

// Is lets callers match both the field kind and the reason.
func (e *CredentialError) Is(target error) bool {
	switch target {
	case ErrInvalidUsername:
		return e.Field == "username"
	case ErrInvalidPassword:
		return e.Field == "password"
	case ErrTooShort, ErrBadChars:
		return e.Reason == target
	}
	return false
}

var credentialValidator = newCredentialValidator()

func newCredentialValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("credchars", func(fl validator.FieldLevel) bool {
		return credentialPattern.MatchString(fl.Field().String())
	})
	return v
}

// NewCredentials trims and NFC-normalizes the raw input.
func NewCredentials(username, password string) Credentials {
	return Credentials{
		Username: norm.NFC.String(strings.TrimSpace(username)),
		Password: norm.NFC.String(strings.TrimSpace(password)),
	}
}

// Validate applies the credential rules in order: username length, username
// characters, password length, password characters. The first failure wins.
func (c *Credentials) Validate() error {
	err := credentialValidator.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	ce := &CredentialError{Field: strings.ToLower(first.Field()), Reason: ErrBadChars}
	if first.Tag() == "min" {
		ce.Reason = ErrTooShort
	}
	return ce
}
