package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseProvider verifies Firebase ID tokens, including the revocation check
type FirebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(ctx context.Context, credentialsFile, projectID string) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	// ID tokens are three dot separated segments
	if strings.Count(token, ".") != 2 {
		return nil, ErrTokenMalformed
	}

	verified, err := p.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		switch {
		case auth.IsIDTokenExpired(err):
			return nil, ErrTokenExpired
		case auth.IsIDTokenRevoked(err):
			return nil, ErrTokenRevoked
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	id := &Identity{
		ExternalID: verified.UID,
		ExpiresAt:  time.Unix(verified.Expires, 0),
	}
	if email, ok := verified.Claims["email"].(string); ok {
		id.Email = strings.ToLower(email)
	}
	if emailVerified, ok := verified.Claims["email_verified"].(bool); ok {
		id.EmailVerified = emailVerified
	}
	if name, ok := verified.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
