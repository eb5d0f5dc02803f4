package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by locally issued tokens
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 tokens. It stands in for the hosted provider
// in development and tests.
type JWTProvider struct {
	secret      []byte
	expiry      time.Duration
	revocations RevocationStore
}

// NewJWTProvider creates a provider. revocations may be nil, in which case Revoke is a no-op.
func NewJWTProvider(secret string, expiry time.Duration, revocations RevocationStore) *JWTProvider {
	return &JWTProvider{
		secret:      []byte(secret),
		expiry:      expiry,
		revocations: revocations,
	}
}

// IssueToken signs a token for the given external identity. The issuer vouches for the email.
func (p *JWTProvider) IssueToken(externalID, email, name string) (string, error) {
	return p.issue(externalID, email, email != "", name)
}

// IssueUnverifiedToken signs a token whose email the issuer has not confirmed
func (p *JWTProvider) IssueUnverifiedToken(externalID, email, name string) (string, error) {
	return p.issue(externalID, email, false, name)
}

func (p *JWTProvider) issue(externalID, email string, emailVerified bool, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:         strings.ToLower(email),
		EmailVerified: emailVerified,
		Name:          name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   externalID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *JWTProvider) VerifyToken(ctx context.Context, tokenString string) (*Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	if p.revocations != nil && claims.ID != "" {
		revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	id := &Identity{
		ExternalID:    claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		TokenID:       claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Revoke denies the token until its natural expiry
func (p *JWTProvider) Revoke(ctx context.Context, id *Identity) error {
	if p.revocations == nil || id == nil || id.TokenID == "" {
		return nil
	}
	return p.revocations.Revoke(ctx, id.TokenID, time.Until(id.ExpiresAt))
}
