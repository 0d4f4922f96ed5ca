// Package gateway holds the client for the remote auth gateway: the stateless
// HTTP endpoints for login, signup, token refresh, logout, and profile
// retrieval. The gateway is consumed here, never implemented.
package gateway

import (
	"context"

	"github.com/jrsteele09/go-session-manager/sessions"
)

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the gateway's answer to a successful login. Both tokens are
// returned so the caller can persist them.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *sessions.User `json:"user"`
}

// Gateway defines the interface for every auth gateway operation the session
// manager depends on.
type Gateway interface {
	// Login exchanges credentials for a token pair and the user record.
	Login(ctx context.Context, creds Credentials) (*LoginResponse, error)

	// Signup creates an account. The new user is NOT logged in.
	Signup(ctx context.Context, req SignupRequest) (*sessions.User, error)

	// Refresh mints a new access token from a refresh token.
	Refresh(ctx context.Context, userID, refreshToken string) (string, error)

	// Logout invalidates the session server-side. Requires a bearer token.
	Logout(ctx context.Context, accessToken string) error

	// Profile fetches the current user record. Requires a bearer token.
	Profile(ctx context.Context, accessToken string) (*sessions.User, error)

	// Avatar fetches a user's avatar image, returning the bytes and content type.
	Avatar(ctx context.Context, userID string) ([]byte, string, error)

	// VerifyEmail confirms a verification token, returning the server's message.
	VerifyEmail(ctx context.Context, token string) (string, error)

	// ResendVerificationEmail asks for a fresh verification email.
	ResendVerificationEmail(ctx context.Context, email string) (string, error)

	// ForgotPassword starts a password reset, returning the server's message.
	ForgotPassword(ctx context.Context, email string) (string, error)

	// ResetPassword completes a password reset with the emailed token.
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}
