package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmail_NormalizesCaseAndWhitespace(t *testing.T) {
	email, err := NewEmail("  User@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", email.String())
}

func TestNewEmail_RejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "nope", "a@b", "@example.com", "user@"} {
		_, err := NewEmail(raw)
		require.ErrorIs(t, err, ErrInvalidEmail, "input %q", raw)
	}
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "user@example.com", NormalizeEmail("  User@Example.com "))
	require.Equal(t, "", NormalizeEmail("   "))
}

func TestEmailFromStore_DoesNotValidate(t *testing.T) {
	email := EmailFromStore("NOT-AN-EMAIL")
	require.Equal(t, "not-an-email", email.String())
	require.False(t, email.IsZero())
}

func TestEmail_Equals(t *testing.T) {
	a, err := NewEmail("user@example.com")
	require.NoError(t, err)
	b, err := NewEmail("USER@example.com")
	require.NoError(t, err)
	require.True(t, a.Equals(b))
	require.True(t, Email{}.IsZero())
}
