package domain

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email represents a validated, normalized email address. The normalized form
// (lower-case, trimmed) is the join key used across the tenant store, the
// Coordinator and the founder allow-list.
type Email struct {
	value string
}

// NewEmail creates a validated email address.
func NewEmail(value string) (Email, error) {
	value = NormalizeEmail(value)
	if value == "" {
		return Email{}, ErrInvalidEmail
	}
	if !emailRegex.MatchString(value) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: value}, nil
}

// NormalizeEmail lower-cases and trims an email string without validating it.
// Lookup paths use this so "  User@Example.com " and "user@example.com"
// address the same tenant row.
func NormalizeEmail(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// EmailFromStore rehydrates an email that was already validated on the way
// in. It normalizes but does not re-validate.
func EmailFromStore(value string) Email {
	return Email{value: NormalizeEmail(value)}
}

// String returns the email string.
func (e Email) String() string {
	return e.value
}

// Equals checks if two emails are equal.
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// IsZero reports whether the email is unset.
func (e Email) IsZero() bool {
	return e.value == ""
}
