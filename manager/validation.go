package manager

import (
	"strings"
	"unicode"

	"github.com/jrsteele09/go-session-manager/gateway"
	errs "github.com/jrsteele09/go-session-manager/internal/errors"
)

// validateCredentials checks login input before any network call. Failures
// surface synchronously as validation errors, never as transport errors.
func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errs.NewValidation("email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errs.NewValidation("invalid email format")
	}
	if password == "" {
		return errs.NewValidation("password is required")
	}
	return nil
}

// validateSignup checks account creation input before any network call.
func validateSignup(req gateway.SignupRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return errs.NewValidation("username is required")
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return err
	}
	return ValidatePasswordStrength(req.Password)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errs.NewValidation("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return errs.NewValidation("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errs.NewValidation("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errs.NewValidation("password must contain at least one number")
	}

	return nil
}
