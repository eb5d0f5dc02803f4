// Package identity verifies bearer tokens issued by an external identity provider and
// reduces them to the stable identifiers the backend keys users on.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTokenMissing   = errors.New("identity token missing")
	ErrTokenMalformed = errors.New("identity token malformed")
	ErrTokenExpired   = errors.New("identity token expired")
	ErrTokenRevoked   = errors.New("identity token revoked")
	ErrTokenInvalid   = errors.New("identity token invalid")
)

// Identity is what a verified token says about its bearer
type Identity struct {
	ExternalID    string
	Email         string
	EmailVerified bool // the provider vouches that the bearer controls Email
	Name          string

	// TokenID and ExpiresAt describe the token itself and are used for revocation
	TokenID   string
	ExpiresAt time.Time
}

// Provider verifies a bearer token
type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// Revoker is implemented by providers that can invalidate a single token before it expires
type Revoker interface {
	Revoke(ctx context.Context, id *Identity) error
}

// RevocationStore persists revoked token ids
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
