package guard

import (
	"net/http"

	"github.com/jrsteele09/go-session-manager/sessions"
)

// SnapshotReader supplies the current session view. *manager.Manager satisfies
// this; tests can hand in a function.
type SnapshotReader interface {
	Snapshot() sessions.Snapshot
}

// SnapshotFunc adapts a plain function to SnapshotReader.
type SnapshotFunc func() sessions.Snapshot

func (f SnapshotFunc) Snapshot() sessions.Snapshot { return f() }

// Middleware gates an HTTP route on the session state. Pending answers 503
// with a Retry-After so the client shows its loading state rather than being
// redirected; Denied answers a 303 redirect to the guard's fallback route.
// Compatible with gorilla/mux's Use and with plain http wrapping.
func Middleware(reader SnapshotReader, requiredRole sessions.RoleType, routes Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := Evaluate(reader.Snapshot(), requiredRole, routes)
			switch result.Decision {
			case Pending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case Denied:
				http.Redirect(w, r, result.RedirectTo, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
