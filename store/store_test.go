package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-manager/internal/utils"
	"github.com/jrsteele09/go-session-manager/sessions"
	"github.com/jrsteele09/go-session-manager/store"
)

const (
	testUserID     = "u1"
	testUserEmail  = "a@b.com"
	testAccessTok  = "tok1"
	testRefreshTok = "refresh1"
	testAccessTok2 = "tok2"
)

type storeFixture struct {
	durable *store.InMemoryDurable
	cookies *store.CookieJar
	store   *store.Store
}

func setupStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	durable := store.NewInMemoryDurable()
	cookies := store.NewCookieJar(nil)
	return &storeFixture{
		durable: durable,
		cookies: cookies,
		store:   store.New(durable, cookies),
	}
}

func testUser() *sessions.User {
	return &sessions.User{
		ID:       testUserID,
		Email:    testUserEmail,
		Username: "johnd",
		Role:     sessions.RoleUser,
		Verified: true,
	}
}

func TestWriteSessionSyncsBothStores(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))

	durAccess, ok, err := f.durable.Get(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	cookieAccess, ok := f.cookies.Get(store.CookieAccessToken)
	require.True(t, ok)
	require.Equal(t, durAccess, cookieAccess)
	require.Equal(t, testAccessTok, durAccess)

	durRefresh, ok, err := f.durable.Get(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	cookieRefresh, ok := f.cookies.Get(store.CookieRefreshToken)
	require.True(t, ok)
	require.Equal(t, durRefresh, cookieRefresh)

	userID, ok, err := f.store.UserID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testUserID, userID)
}

func TestReadSessionPresentWhenBothHalvesExist(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))

	sess, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, testUserID, sess.User.ID)
	require.Equal(t, testUserEmail, sess.User.Email)
	require.Equal(t, testAccessTok, sess.AccessToken)
	require.Equal(t, testRefreshTok, sess.RefreshToken)
}

func TestReadSessionAbsentWhenCookieMissingAndClearsStrayUser(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))

	// Delete only the cookie half
	f.cookies.Delete(store.CookieAccessToken)

	_, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.False(t, present)

	// The stray durable user record was removed as cleanup
	_, ok, err := f.durable.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadSessionAbsentWhenDurableMissingAndClearsStrayCookie(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	f.cookies.Set(store.CookieAccessToken, testAccessTok, store.AccessTokenTTL)

	_, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.False(t, present)

	_, ok := f.cookies.Get(store.CookieAccessToken)
	require.False(t, ok)
}

func TestReadSessionSelfHealsOnCorruptUserRecord(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.durable.Set(ctx, store.KeyUser, "{not json"))
	f.cookies.Set(store.CookieAccessToken, testAccessTok, store.AccessTokenTTL)

	_, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.False(t, present)

	_, ok, err := f.durable.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok = f.cookies.Get(store.CookieAccessToken)
	require.False(t, ok)
}

func TestReadSessionDiscardsInterruptedWrite(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))
	// Simulate a crash mid-write: the marker never got cleared
	require.NoError(t, f.durable.Set(ctx, "session_wal", "marker"))

	_, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.False(t, present)

	_, ok, err := f.durable.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClearSessionIsIdempotent(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))
	require.NoError(t, f.store.ClearSession(ctx))
	require.NoError(t, f.store.ClearSession(ctx)) // second clear must not fail

	_, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.False(t, present)

	_, ok, err := f.store.AccessToken(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok = f.cookies.Get(store.CookieRefreshToken)
	require.False(t, ok)
}

func TestWriteAccessTokenLeavesUserAndRefreshUntouched(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))
	require.NoError(t, f.store.WriteAccessToken(ctx, testAccessTok2))

	sess, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, testAccessTok2, sess.AccessToken)
	require.Equal(t, testRefreshTok, sess.RefreshToken)
	require.Equal(t, testUserID, sess.User.ID)

	cookieAccess, ok := f.cookies.Get(store.CookieAccessToken)
	require.True(t, ok)
	require.Equal(t, testAccessTok2, cookieAccess)
}

func TestUpdateUserFieldsMergesDurableRecordOnly(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteSession(ctx, testUser(), testAccessTok, testRefreshTok))

	merged, err := f.store.UpdateUserFields(ctx, sessions.UserPatch{
		Role:      utils.Ptr(sessions.RoleAdmin),
		AvatarURL: utils.Ptr("https://cdn.example.com/a.png"),
	})
	require.NoError(t, err)
	require.Equal(t, sessions.RoleAdmin, merged.Role)
	require.Equal(t, "https://cdn.example.com/a.png", merged.AvatarURL)
	require.Equal(t, testUserEmail, merged.Email) // untouched fields survive

	sess, present, err := f.store.ReadSession(ctx)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, sessions.RoleAdmin, sess.User.Role)
	require.Equal(t, testAccessTok, sess.AccessToken) // tokens untouched
	require.Equal(t, testRefreshTok, sess.RefreshToken)
}

func TestUpdateUserFieldsFailsWithoutUserRecord(t *testing.T) {
	f := setupStoreFixture(t)

	_, err := f.store.UpdateUserFields(context.Background(), sessions.UserPatch{
		Role: utils.Ptr(sessions.RoleAdmin),
	})
	require.Error(t, err)
}

func TestPendingVerificationEmailLifecycle(t *testing.T) {
	f := setupStoreFixture(t)
	ctx := context.Background()

	_, ok, err := f.store.PendingVerificationEmail(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.store.SetPendingVerificationEmail(ctx, testUserEmail))
	email, ok, err := f.store.PendingVerificationEmail(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testUserEmail, email)

	require.NoError(t, f.store.ClearPendingVerificationEmail(ctx))
	_, ok, err = f.store.PendingVerificationEmail(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCookieTTLsMatchTokenLifetimes(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	cookies := store.NewCookieJar(func() time.Time { return now })
	durable := store.NewInMemoryDurable()
	s := store.New(durable, cookies)

	require.NoError(t, s.WriteSession(context.Background(), testUser(), testAccessTok, testRefreshTok))

	for _, c := range cookies.Cookies() {
		switch c.Name {
		case store.CookieAccessToken:
			require.Equal(t, now.Add(store.AccessTokenTTL), c.Expires)
		case store.CookieRefreshToken:
			require.Equal(t, now.Add(store.RefreshTokenTTL), c.Expires)
		}
	}
}
