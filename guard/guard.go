// Package guard decides whether protected content may render. It is purely
// reactive: it holds no state of its own and derives every decision from a
// session snapshot. The ordering contract is the whole point - while the
// session is still loading no redirect decision may be made, so protected
// content can neither flash early nor bounce a user who is about to be
// recognized as logged in.
package guard

import (
	"github.com/jrsteele09/go-session-manager/sessions"
)

// Decision is one of exactly three render states.
type Decision string

const (
	// Pending: the session is still initializing. Render a neutral loading
	// indicator and make no redirect decision.
	Pending Decision = "pending"
	// Denied: no user, or the user's role does not match the requirement.
	// Redirect to Result.RedirectTo.
	Denied Decision = "denied"
	// Allowed: render the protected content.
	Allowed Decision = "allowed"
)

// Result is the guard's verdict for a single evaluation.
type Result struct {
	Decision   Decision
	RedirectTo string // Set only when Decision is Denied
}

// Routes holds the guard's redirect fallbacks: the login route for a missing
// user and the default authenticated landing page for a role mismatch.
type Routes struct {
	Login string
	Home  string
}

// DefaultRoutes matches the dashboard's layout.
var DefaultRoutes = Routes{Login: "/login", Home: "/dashboard"}

// Evaluate maps a session snapshot and an optional role requirement to a
// decision. The loading check comes strictly before the user check: a loading
// session is Pending regardless of what else the snapshot holds.
func Evaluate(snap sessions.Snapshot, requiredRole sessions.RoleType, routes Routes) Result {
	if routes.Login == "" {
		routes.Login = DefaultRoutes.Login
	}
	if routes.Home == "" {
		routes.Home = DefaultRoutes.Home
	}

	if snap.Loading || snap.Status == sessions.StatusInitializing {
		return Result{Decision: Pending}
	}

	if snap.User == nil {
		return Result{Decision: Denied, RedirectTo: routes.Login}
	}

	if !snap.User.HasRole(requiredRole) {
		return Result{Decision: Denied, RedirectTo: routes.Home}
	}

	return Result{Decision: Allowed}
}
