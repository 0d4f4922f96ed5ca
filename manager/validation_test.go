package manager_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	errs "github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/manager"
)

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		require.NoError(t, manager.ValidatePasswordStrength("Password123"))
	})

	t.Run("too short", func(t *testing.T) {
		err := manager.ValidatePasswordStrength("Pw1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("missing uppercase", func(t *testing.T) {
		err := manager.ValidatePasswordStrength("password123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "uppercase")
	})

	t.Run("missing lowercase", func(t *testing.T) {
		err := manager.ValidatePasswordStrength("PASSWORD123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "lowercase")
	})

	t.Run("missing number", func(t *testing.T) {
		err := manager.ValidatePasswordStrength("PasswordOnly")
		require.Error(t, err)
		require.Contains(t, err.Error(), "number")
	})

	t.Run("failures are validation errors", func(t *testing.T) {
		require.True(t, errs.IsValidation(manager.ValidatePasswordStrength("short")))
	})
}
