package store

import "context"

// Durable store keys owned by the session store. Nothing outside this package
// reads or writes them directly.
const (
	KeyAccessToken              = "access_token"
	KeyRefreshToken             = "refresh_token"
	KeyUserID                   = "user_id"
	KeyUser                     = "user" // JSON-serialized sessions.User
	KeyPendingVerificationEmail = "pending_verification_email"
	keyWriteMarker              = "session_wal" // present only while a dual write is in flight
)

// ownedKeys is everything ClearSession removes from the durable half.
var ownedKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserID,
	KeyUser,
	KeyPendingVerificationEmail,
	keyWriteMarker,
}

// DurableStore is the persistent key/value half of the session store. It survives
// restarts and is never sent over the network. Implementations must be safe for
// concurrent use.
type DurableStore interface {
	// Get retrieves a value. The second return is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value, overwriting any existing one.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
