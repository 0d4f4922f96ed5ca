package manager

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	errs "github.com/jrsteele09/go-session-manager/internal/errors"
)

// defaultPollInterval is how often AutoRefresh re-checks storage when no
// expiry can be derived (no session, or an opaque access token).
const defaultPollInterval = time.Minute

// AccessTokenExpiry returns the stored access token's expiry, read from its JWT
// exp claim. The token is parsed without signature verification: this client is
// not the token's audience, it only needs the timestamp to schedule a refresh.
// Returns ErrSessionAbsent when no token is stored and ErrTokenOpaque when the
// token is not a JWT or carries no exp claim.
func (m *Manager) AccessTokenExpiry(ctx context.Context) (time.Time, error) {
	token, ok, err := m.deps.Store.AccessToken(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[Manager.AccessTokenExpiry] AccessToken")
	}
	if !ok {
		return time.Time{}, errs.ErrSessionAbsent
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, errs.ErrTokenOpaque
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errs.ErrTokenOpaque
	}
	return exp.Time, nil
}

// AutoRefresh runs pre-emptive token refresh until ctx is canceled. When the
// access token's expiry is known, the refresh fires leeway before it; when the
// token is opaque or no session exists, storage is re-checked once a minute so
// the reactive model still applies. A refresh failure has already cascaded to
// logout by the time it is seen here, so the loop simply keeps polling for the
// next login.
func (m *Manager) AutoRefresh(ctx context.Context, leeway time.Duration) {
	if leeway <= 0 {
		leeway = 30 * time.Second
	}

	for {
		wait := defaultPollInterval
		if expiry, err := m.AccessTokenExpiry(ctx); err == nil {
			wait = expiry.Sub(m.nowTime()) - leeway
			if wait < time.Second {
				wait = time.Second // floor keeps a misbehaving gateway from spinning the loop
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, haveID, err := m.deps.Store.UserID(ctx); err != nil || !haveID {
			continue
		}
		if err := m.RefreshToken(ctx); err != nil {
			m.log.Debug().Err(err).Msg("scheduled refresh failed")
		}
	}
}
