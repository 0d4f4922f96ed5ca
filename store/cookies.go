package store

import (
	"net/http"
	"sync"
	"time"
)

// Cookie names and lifetimes. The cookie half of the session store is what the
// server-side page gate reads before any client script runs.
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"

	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CookieStore is the HTTP-visible half of the session store. Implementations
// must be safe for concurrent use.
type CookieStore interface {
	// Set stores a cookie value with the given lifetime.
	Set(name, value string, ttl time.Duration)

	// Get retrieves a live cookie value. Expired cookies read as absent.
	Get(name string) (string, bool)

	// Delete removes a cookie. A deletion tombstone is kept so Cookies()
	// can instruct the browser to drop it.
	Delete(name string)

	// Cookies returns the pending Set-Cookie values, including expirations
	// for deleted names.
	Cookies() []*http.Cookie
}

var _ CookieStore = (*CookieJar)(nil)

type cookieEntry struct {
	value   string
	expires time.Time
	deleted bool
}

// CookieJar holds session cookies in memory and renders them as http.Cookie
// values with Path=/ and SameSite=Lax, matching what the page gate expects.
type CookieJar struct {
	entries map[string]cookieEntry
	nowTime func() time.Time
	lock    sync.RWMutex
}

// NewCookieJar creates an empty jar. nowFunc is injectable for tests; pass nil
// for time.Now.
func NewCookieJar(nowFunc func() time.Time) *CookieJar {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &CookieJar{
		entries: make(map[string]cookieEntry),
		nowTime: nowFunc,
	}
}

// SeedFromRequest primes the jar with cookie values from an incoming request.
// Only the names owned by the session store are picked up.
func (j *CookieJar) SeedFromRequest(r *http.Request) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			j.Set(name, c.Value, AccessTokenTTL)
		}
	}
}

func (j *CookieJar) Set(name, value string, ttl time.Duration) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries[name] = cookieEntry{value: value, expires: j.nowTime().Add(ttl)}
}

func (j *CookieJar) Get(name string) (string, bool) {
	j.lock.RLock()
	defer j.lock.RUnlock()
	e, ok := j.entries[name]
	if !ok || e.deleted || j.nowTime().After(e.expires) {
		return "", false
	}
	return e.value, true
}

func (j *CookieJar) Delete(name string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries[name] = cookieEntry{deleted: true}
}

func (j *CookieJar) Cookies() []*http.Cookie {
	j.lock.RLock()
	defer j.lock.RUnlock()

	now := j.nowTime()
	cookies := make([]*http.Cookie, 0, len(j.entries))
	for name, e := range j.entries {
		if e.deleted || now.After(e.expires) {
			cookies = append(cookies, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				SameSite: http.SameSiteLaxMode,
			})
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    e.value,
			Path:     "/",
			Expires:  e.expires,
			MaxAge:   int(e.expires.Sub(now) / time.Second),
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cookies
}

// WriteTo emits the jar's pending cookies onto an outgoing response.
func (j *CookieJar) WriteTo(w http.ResponseWriter) {
	for _, c := range j.Cookies() {
		http.SetCookie(w, c)
	}
}
