// Package store is the single choke point for persisted session state. The same
// three logical fields (access token, refresh token, user) live in two physical
// stores with different lifetimes: a durable key/value store that survives
// restarts, and a cookie store read by the server-side page gate. Every write
// here fans out to both halves; a session counts as present only when both
// halves agree.
package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-manager/sessions"
)

// Store keeps the durable store and the cookie store in sync. Nothing outside
// this package touches either half directly.
type Store struct {
	durable DurableStore
	cookies CookieStore
}

func New(durable DurableStore, cookies CookieStore) *Store {
	return &Store{durable: durable, cookies: cookies}
}

// WriteSession writes the full session to both halves: all fields to the
// durable store, both tokens to cookies with their respective lifetimes.
// A write-ahead marker brackets the fan-out so an interrupted write is
// detectable (and discarded) at the next ReadSession.
func (s *Store) WriteSession(ctx context.Context, user *sessions.User, accessToken, refreshToken string) error {
	if user == nil {
		return errors.New("[Store.WriteSession] user is required")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[Store.WriteSession] marshal user")
	}

	if err := s.durable.Set(ctx, keyWriteMarker, uuid.New().String()); err != nil {
		return errors.Wrap(err, "[Store.WriteSession] set write marker")
	}

	writes := map[string]string{
		KeyUser:         string(userJSON),
		KeyUserID:       user.ID,
		KeyAccessToken:  accessToken,
		KeyRefreshToken: refreshToken,
	}
	for key, value := range writes {
		if err := s.durable.Set(ctx, key, value); err != nil {
			return errors.Wrapf(err, "[Store.WriteSession] set %s", key)
		}
	}

	s.cookies.Set(CookieAccessToken, accessToken, AccessTokenTTL)
	s.cookies.Set(CookieRefreshToken, refreshToken, RefreshTokenTTL)

	if err := s.durable.Delete(ctx, keyWriteMarker); err != nil {
		return errors.Wrap(err, "[Store.WriteSession] clear write marker")
	}
	return nil
}

// WriteAccessToken updates only the access token in both halves, leaving the
// user record and refresh token untouched. Used after a silent refresh.
func (s *Store) WriteAccessToken(ctx context.Context, accessToken string) error {
	if err := s.durable.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return errors.Wrap(err, "[Store.WriteAccessToken] set access token")
	}
	s.cookies.Set(CookieAccessToken, accessToken, AccessTokenTTL)
	return nil
}

// ReadSession rehydrates the session from storage. A session is present only
// when both the durable user record and the cookie access token exist; either
// half alone reads as absent and the stray half is cleared. A corrupt durable
// record or an interrupted dual write is likewise treated as absent, not an
// error - the store self-heals by clearing everything it owns.
func (s *Store) ReadSession(ctx context.Context) (*sessions.Session, bool, error) {
	if _, interrupted, err := s.durable.Get(ctx, keyWriteMarker); err != nil {
		return nil, false, errors.Wrap(err, "[Store.ReadSession] get write marker")
	} else if interrupted {
		log.Debug().Msg("session store: interrupted write detected, clearing session")
		return nil, false, s.ClearSession(ctx)
	}

	userJSON, haveUser, err := s.durable.Get(ctx, KeyUser)
	if err != nil {
		return nil, false, errors.Wrap(err, "[Store.ReadSession] get user")
	}
	_, haveCookie := s.cookies.Get(CookieAccessToken)

	if !haveUser || !haveCookie {
		// One half without the other is a stale leftover, clean it up
		if haveUser || haveCookie {
			if err := s.ClearSession(ctx); err != nil {
				return nil, false, errors.Wrap(err, "[Store.ReadSession] clear stray half")
			}
		}
		return nil, false, nil
	}

	var user sessions.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil || user.ID == "" {
		log.Debug().Msg("session store: unparseable user record, clearing session")
		return nil, false, s.ClearSession(ctx)
	}

	accessToken, _, err := s.durable.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, false, errors.Wrap(err, "[Store.ReadSession] get access token")
	}
	refreshToken, _, err := s.durable.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, false, errors.Wrap(err, "[Store.ReadSession] get refresh token")
	}

	return &sessions.Session{
		User:         &user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, true, nil
}

// ClearSession removes every key this store owns from both halves. Safe to call
// repeatedly and with no session present.
func (s *Store) ClearSession(ctx context.Context) error {
	for _, key := range ownedKeys {
		if err := s.durable.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "[Store.ClearSession] delete %s", key)
		}
	}
	s.cookies.Delete(CookieAccessToken)
	s.cookies.Delete(CookieRefreshToken)
	return nil
}

// UpdateUserFields merges a partial update into the durable user record only.
// Tokens and cookies are untouched.
func (s *Store) UpdateUserFields(ctx context.Context, patch sessions.UserPatch) (*sessions.User, error) {
	userJSON, ok, err := s.durable.Get(ctx, KeyUser)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.UpdateUserFields] get user")
	}
	if !ok {
		return nil, errors.New("[Store.UpdateUserFields] no user record to update")
	}

	var user sessions.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, errors.Wrap(err, "[Store.UpdateUserFields] unmarshal user")
	}

	merged := patch.Apply(user)
	mergedJSON, err := json.Marshal(&merged)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.UpdateUserFields] marshal user")
	}
	if err := s.durable.Set(ctx, KeyUser, string(mergedJSON)); err != nil {
		return nil, errors.Wrap(err, "[Store.UpdateUserFields] set user")
	}
	return &merged, nil
}

// SetPendingVerificationEmail records the email submitted at signup. A signup
// does not authenticate the session; this is the only state it leaves behind.
func (s *Store) SetPendingVerificationEmail(ctx context.Context, email string) error {
	if err := s.durable.Set(ctx, KeyPendingVerificationEmail, email); err != nil {
		return errors.Wrap(err, "[Store.SetPendingVerificationEmail] set")
	}
	return nil
}

// ClearPendingVerificationEmail drops the signup marker once verification
// completes.
func (s *Store) ClearPendingVerificationEmail(ctx context.Context) error {
	if err := s.durable.Delete(ctx, KeyPendingVerificationEmail); err != nil {
		return errors.Wrap(err, "[Store.ClearPendingVerificationEmail] delete")
	}
	return nil
}

// PendingVerificationEmail returns the email recorded at signup, if any.
func (s *Store) PendingVerificationEmail(ctx context.Context) (string, bool, error) {
	email, ok, err := s.durable.Get(ctx, KeyPendingVerificationEmail)
	if err != nil {
		return "", false, errors.Wrap(err, "[Store.PendingVerificationEmail] get")
	}
	return email, ok, nil
}

// UserID returns the stored user id, if any.
func (s *Store) UserID(ctx context.Context) (string, bool, error) {
	id, ok, err := s.durable.Get(ctx, KeyUserID)
	if err != nil {
		return "", false, errors.Wrap(err, "[Store.UserID] get")
	}
	return id, ok && id != "", nil
}

// AccessToken returns the stored access token, if any.
func (s *Store) AccessToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.durable.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", false, errors.Wrap(err, "[Store.AccessToken] get")
	}
	return token, ok && token != "", nil
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.durable.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", false, errors.Wrap(err, "[Store.RefreshToken] get")
	}
	return token, ok && token != "", nil
}
