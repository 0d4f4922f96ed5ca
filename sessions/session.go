package sessions

import "time"

// RoleType represents a user's authorization role as reported by the auth gateway.
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Full access, including admin views
	RoleUser  RoleType = "user"  // Regular dashboard user
)

// User is the authenticated identity for the current session. The shape mirrors the
// gateway's user record; fields beyond identity/authorization are carried opaquely.
type User struct {
	ID               string    `json:"id,omitempty"`                 // Unique identifier for the user
	Email            string    `json:"email,omitempty"`              // User's email address
	Username         string    `json:"username,omitempty"`           // Unique username
	Role             RoleType  `json:"role,omitempty"`               // Drives the route guard's role checks
	Verified         bool      `json:"isVerified,omitempty"`         // Has the user verified their email
	AvatarURL        string    `json:"avatarUrl,omitempty"`          // Optional avatar image location
	CreatedAt        time.Time `json:"createdAt,omitempty"`          // When the account was registered
	TwoFactorEnabled bool      `json:"isTwoFactorEnabled,omitempty"` // Whether 2FA is active on the account
}

// HasRole reports whether the user satisfies a role requirement. An empty
// requirement is satisfied by any user.
func (u *User) HasRole(role RoleType) bool {
	if role == "" {
		return true
	}
	return u != nil && u.Role == role
}

// Session holds the authenticated identity together with the credentials needed
// to call protected gateway endpoints.
type Session struct {
	User         *User
	AccessToken  string // Short-lived bearer credential, sent on every authorized request
	RefreshToken string // Long-lived credential, used only to mint a new access token
}

// Status is the lifecycle state of the session manager.
type Status string

const (
	StatusInitializing    Status = "initializing"    // Startup rehydration from storage is still running
	StatusUnauthenticated Status = "unauthenticated" // No session present
	StatusAuthenticated   Status = "authenticated"   // A user is logged in
	StatusRefreshing      Status = "refreshing"      // A silent access-token refresh is in flight
	StatusLoggingOut      Status = "logging_out"     // Logout cleanup is in progress
)

// Snapshot is the read-only view of session state handed to consumers (the route
// guard and UI layers). Readers must treat Loading as distinct from "no user":
// redirect decisions are suspended until Loading clears.
type Snapshot struct {
	User    *User
	Status  Status
	Loading bool
}

// Authenticated reports whether a user is currently logged in.
func (s Snapshot) Authenticated() bool {
	return s.User != nil && s.Status != StatusInitializing
}

// UserPatch is a partial user update applied by UpdateUser. Nil fields are
// left untouched by the merge.
type UserPatch struct {
	Email            *string    `json:"email,omitempty"`
	Username         *string    `json:"username,omitempty"`
	Role             *RoleType  `json:"role,omitempty"`
	Verified         *bool      `json:"isVerified,omitempty"`
	AvatarURL        *string    `json:"avatarUrl,omitempty"`
	TwoFactorEnabled *bool      `json:"isTwoFactorEnabled,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// Apply merges the patch into a user record, returning the merged copy.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	if p.CreatedAt != nil {
		u.CreatedAt = *p.CreatedAt
	}
	return u
}
