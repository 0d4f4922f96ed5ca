// Package manager implements the session state machine: the single place that
// decides whether the user is authenticated. It orchestrates login, signup,
// logout, silent refresh, and startup initialization against the remote auth
// gateway, writing all persistent state through the session store. The manager
// is the one writer of session state; every other component reads it through
// Snapshot.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-session-manager/gateway"
	"github.com/jrsteele09/go-session-manager/sessions"
	"github.com/jrsteele09/go-session-manager/store"
)

// Deps holds the manager's collaborator dependencies.
type Deps struct {
	Store   *store.Store    // Dual-write session store
	Gateway gateway.Gateway // Remote auth gateway client
}

// Manager is the session state machine. Mutating operations (Login, Signup,
// Logout, RefreshToken, UpdateUser, Initialize) are serialized by an internal
// lock so a logout can never interleave with an in-flight refresh.
type Manager struct {
	deps    Deps
	log     zerolog.Logger
	nowTime func() time.Time
	onReset func()

	opLock sync.Mutex // serializes mutating operations

	stateLock sync.RWMutex
	user      *sessions.User
	status    sessions.Status
	loading   bool
}

// Option modifies a Manager during construction.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = logger
	}
}

// WithResetHook registers the hosting application's full-reset signal, fired
// after logout cleanup completes. The web dashboard used this to force a hard
// navigation so no in-flight view kept referencing the old session.
func WithResetHook(hook func()) Option {
	return func(m *Manager) {
		m.onReset = hook
	}
}

// New initializes a Manager with required dependencies. The manager starts in
// the Initializing state; call Initialize before any consumer reads a snapshot.
func New(deps Deps, options ...Option) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("[manager.New] Store is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("[manager.New] Gateway is required")
	}

	m := &Manager{
		deps:    deps,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		status:  sessions.StatusInitializing,
		loading: true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Snapshot returns the current session view. The returned user is a copy;
// mutating it does not affect the manager's state.
func (m *Manager) Snapshot() sessions.Snapshot {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()

	var user *sessions.User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return sessions.Snapshot{
		User:    user,
		Status:  m.status,
		Loading: m.loading,
	}
}

// Initialized reports whether startup rehydration has completed.
func (m *Manager) Initialized() bool {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.status != sessions.StatusInitializing
}

func (m *Manager) setState(user *sessions.User, status sessions.Status, loading bool) {
	m.stateLock.Lock()
	defer m.stateLock.Unlock()
	m.user = user
	m.status = status
	m.loading = loading
}

func (m *Manager) setLoading(loading bool) {
	m.stateLock.Lock()
	defer m.stateLock.Unlock()
	m.loading = loading
}

func (m *Manager) currentUser() *sessions.User {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.user
}

// Initialize rehydrates the session from storage. It runs once at startup,
// before any consumer reads session state: a durable user record paired with a
// live cookie token yields Authenticated; anything else (including a corrupt or
// half-present record, which the store clears) yields Unauthenticated.
func (m *Manager) Initialize(ctx context.Context) error {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	if m.Initialized() {
		return nil
	}

	sess, present, err := m.deps.Store.ReadSession(ctx)
	if err != nil {
		m.setState(nil, sessions.StatusUnauthenticated, false)
		return errors.Wrap(err, "[Manager.Initialize] ReadSession")
	}

	if !present {
		m.setState(nil, sessions.StatusUnauthenticated, false)
		return nil
	}

	m.setState(sess.User, sessions.StatusAuthenticated, false)
	m.log.Debug().Str("user_id", sess.User.ID).Msg("session rehydrated from storage")
	return nil
}

// Login authenticates against the gateway. On success the full session is
// written through the store (both halves) and the state becomes Authenticated.
// The complete gateway response is returned for callers that need the tokens.
// The loading flag is cleared on every path.
func (m *Manager) Login(ctx context.Context, creds gateway.Credentials) (*gateway.LoginResponse, error) {
	if err := validateCredentials(creds.Email, creds.Password); err != nil {
		return nil, err
	}

	m.opLock.Lock()
	defer m.opLock.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	resp, err := m.deps.Gateway.Login(ctx, creds)
	if err != nil {
		// A failed network call leaves no partial state behind
		if m.currentUser() == nil {
			m.setState(nil, sessions.StatusUnauthenticated, true)
		}
		return nil, errors.Wrap(err, "[Manager.Login] gateway login")
	}

	if err := m.deps.Store.WriteSession(ctx, resp.User, resp.AccessToken, resp.RefreshToken); err != nil {
		// Half-written storage is worse than no session, roll back
		if clearErr := m.deps.Store.ClearSession(ctx); clearErr != nil {
			m.log.Error().Err(clearErr).Msg("failed to clear session after write failure")
		}
		m.setState(nil, sessions.StatusUnauthenticated, true)
		return nil, errors.Wrap(err, "[Manager.Login] WriteSession")
	}

	m.setState(resp.User, sessions.StatusAuthenticated, true)
	m.log.Info().Str("user_id", resp.User.ID).Msg("user logged in")
	return resp, nil
}

// Signup creates an account through the gateway. A signup does not authenticate
// the session; the only state it leaves behind is the submitted email, recorded
// as pending verification in the durable store.
func (m *Manager) Signup(ctx context.Context, req gateway.SignupRequest) (*sessions.User, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	m.opLock.Lock()
	defer m.opLock.Unlock()

	user, err := m.deps.Gateway.Signup(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Signup] gateway signup")
	}

	if err := m.deps.Store.SetPendingVerificationEmail(ctx, req.Email); err != nil {
		return nil, errors.Wrap(err, "[Manager.Signup] SetPendingVerificationEmail")
	}
	return user, nil
}

// RefreshToken performs a silent refresh. With no stored user id or refresh
// token it is a no-op: nobody is logged in, there is nothing to refresh. A
// gateway failure is non-recoverable and cascades to a full logout rather than
// leaving a half-valid session.
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	userID, haveID, err := m.deps.Store.UserID(ctx)
	if err != nil {
		return errors.Wrap(err, "[Manager.RefreshToken] UserID")
	}
	refreshToken, haveToken, err := m.deps.Store.RefreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "[Manager.RefreshToken] RefreshToken")
	}
	if !haveID || !haveToken {
		return nil
	}

	if m.currentUser() != nil {
		m.setState(m.currentUser(), sessions.StatusRefreshing, false)
	}

	accessToken, err := m.deps.Gateway.Refresh(ctx, userID, refreshToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("token refresh failed, terminating session")
		m.logoutLocked(ctx)
		return errors.Wrap(err, "[Manager.RefreshToken] gateway refresh")
	}

	if err := m.deps.Store.WriteAccessToken(ctx, accessToken); err != nil {
		return errors.Wrap(err, "[Manager.RefreshToken] WriteAccessToken")
	}

	if user := m.currentUser(); user != nil {
		m.setState(user, sessions.StatusAuthenticated, false)
	}
	m.log.Debug().Msg("access token refreshed")
	return nil
}

// Logout ends the session. The server-side logout call is best-effort and only
// attempted when a user id is present locally; its failure is logged and never
// prevents local cleanup. Both storage halves are cleared, the in-memory user
// is dropped, and the reset hook fires. Safe to call repeatedly and with no
// session present.
func (m *Manager) Logout(ctx context.Context) error {
	m.opLock.Lock()
	defer m.opLock.Unlock()
	return m.logoutLocked(ctx)
}

// logoutLocked is the logout body. Callers must hold opLock.
func (m *Manager) logoutLocked(ctx context.Context) error {
	m.setState(m.currentUser(), sessions.StatusLoggingOut, true)

	userID, haveID, err := m.deps.Store.UserID(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("could not read user id during logout")
	}
	if haveID && err == nil {
		accessToken, _, tokenErr := m.deps.Store.AccessToken(ctx)
		if tokenErr == nil {
			if logoutErr := m.deps.Gateway.Logout(ctx, accessToken); logoutErr != nil {
				// Fire and forget, local cleanup proceeds regardless
				m.log.Warn().Err(logoutErr).Str("user_id", userID).Msg("server-side logout failed")
			}
		}
	}

	clearErr := m.deps.Store.ClearSession(ctx)
	m.setState(nil, sessions.StatusUnauthenticated, false)

	if m.onReset != nil {
		m.onReset()
	}
	if clearErr != nil {
		return errors.Wrap(clearErr, "[Manager.Logout] ClearSession")
	}
	m.log.Info().Msg("user logged out")
	return nil
}

// UpdateUser merges a partial update into both the in-memory user and the
// durable record. No network call is made and tokens are untouched; this backs
// optimistic UI updates such as an avatar change.
func (m *Manager) UpdateUser(ctx context.Context, patch sessions.UserPatch) (*sessions.User, error) {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	if m.currentUser() == nil {
		return nil, errors.New("[Manager.UpdateUser] no authenticated user")
	}

	merged, err := m.deps.Store.UpdateUserFields(ctx, patch)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.UpdateUser] UpdateUserFields")
	}

	m.stateLock.Lock()
	m.user = merged
	m.stateLock.Unlock()
	return merged, nil
}

// Profile re-fetches the user record from the gateway using the stored access
// token and folds it into session state.
func (m *Manager) Profile(ctx context.Context) (*sessions.User, error) {
	m.opLock.Lock()
	defer m.opLock.Unlock()

	accessToken, ok, err := m.deps.Store.AccessToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Profile] AccessToken")
	}
	if !ok {
		return nil, errors.New("[Manager.Profile] no access token stored")
	}

	user, err := m.deps.Gateway.Profile(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Profile] gateway profile")
	}

	if m.currentUser() != nil {
		m.setState(user, sessions.StatusAuthenticated, false)
	}
	return user, nil
}

// VerifyEmail is a pass-through to the gateway with no session-state side
// effects beyond clearing the pending-verification marker on success.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (string, error) {
	msg, err := m.deps.Gateway.VerifyEmail(ctx, token)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.VerifyEmail] gateway")
	}
	if err := m.deps.Store.ClearPendingVerificationEmail(ctx); err != nil {
		m.log.Warn().Err(err).Msg("could not clear pending verification email")
	}
	return msg, nil
}

// ResendVerificationEmail is a pure pass-through to the gateway.
func (m *Manager) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	msg, err := m.deps.Gateway.ResendVerificationEmail(ctx, email)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.ResendVerificationEmail] gateway")
	}
	return msg, nil
}

// ForgotPassword is a pure pass-through to the gateway.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	msg, err := m.deps.Gateway.ForgotPassword(ctx, email)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.ForgotPassword] gateway")
	}
	return msg, nil
}

// ResetPassword is a pure pass-through to the gateway.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return "", err
	}
	msg, err := m.deps.Gateway.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.ResetPassword] gateway")
	}
	return msg, nil
}
