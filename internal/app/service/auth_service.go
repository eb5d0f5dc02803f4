package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/pkg/identity"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type RegisterInput struct {
	DisplayName string
	Phone       string
	PhotoURL    string
}

type AuthService interface {
	VerifyIdentity(ctx context.Context, token string) (*identity.Identity, error)
	Resolve(ctx context.Context, token string) (*model.User, *identity.Identity, error)
	Register(ctx context.Context, id *identity.Identity, input RegisterInput) (*model.User, bool, error)
	Logout(ctx context.Context, id *identity.Identity) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, displayName, phone, photoURL string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	provider identity.Provider
}

func NewAuthService(userRepo repository.UserRepository, provider identity.Provider) AuthService {
	return &authService{
		userRepo: userRepo,
		provider: provider,
	}
}

// Authorize is the single role gate. An empty required list allows any role.
func Authorize(role model.UserRole, required ...model.UserRole) error {
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if role == r {
			return nil
		}
	}
	return ErrInsufficientRole
}

// classifyIdentityError maps provider failures onto the auth taxonomy
func classifyIdentityError(err error) error {
	switch {
	case errors.Is(err, identity.ErrTokenMissing):
		return ErrTokenMissing
	case errors.Is(err, identity.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, identity.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, identity.ErrTokenRevoked):
		return ErrTokenRevoked
	case errors.Is(err, identity.ErrTokenInvalid):
		return apperrors.Wrap(ErrTokenInvalid, err)
	default:
		return apperrors.Unavailable("Identity provider is unavailable", err)
	}
}

func (s *authService) VerifyIdentity(ctx context.Context, token string) (*identity.Identity, error) {
	id, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		logger.Debug("Identity verification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, classifyIdentityError(err)
	}
	return id, nil
}

// claimPlaceholder hands a seeded account to the first identity that proves its email.
// It returns nil when no account uses the email. An email held by a real identity is refused.
func (s *authService) claimPlaceholder(id *identity.Identity) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(id.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, nil)
	}

	if !user.HasPlaceholderIdentity() || !id.EmailVerified {
		logger.Warn("Refused to link identity to an existing account", map[string]interface{}{
			"user_id":        user.ID,
			"external_id":    id.ExternalID,
			"email_verified": id.EmailVerified,
		})
		return nil, ErrUnknownUser
	}

	claimed, err := s.userRepo.ClaimExternalID(user.ID, user.ExternalID, id.ExternalID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if !claimed {
		return nil, ErrUnknownUser
	}
	logger.Info("Linked seeded account to identity", map[string]interface{}{
		"user_id": user.ID,
	})
	user.ExternalID = id.ExternalID
	return user, nil
}

// signIn records a sign-in on an existing account
func (s *authService) signIn(user *model.User) (*model.User, bool, error) {
	if !user.IsActive {
		return nil, false, ErrAccountDisabled
	}
	now := time.Now()
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.Warn("Failed to record sign-in", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
	user.LastLoginAt = &now
	return user, false, nil
}

// Resolve verifies token and returns the registered, active user behind it
func (s *authService) Resolve(ctx context.Context, token string) (*model.User, *identity.Identity, error) {
	id, err := s.VerifyIdentity(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByExternalID(id.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Verified identity has no account", map[string]interface{}{
				"external_id": id.ExternalID,
			})
			return nil, nil, ErrUnknownUser
		}
		logger.Error("Failed to resolve user", err, map[string]interface{}{
			"external_id": id.ExternalID,
		})
		return nil, nil, storeError(err, nil)
	}

	if !user.IsActive {
		logger.Warn("Deactivated account attempted access", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrAccountDisabled
	}
	return user, id, nil
}

// Register creates the account for a verified identity. It is idempotent: the boolean
// reports whether a new user was created.
func (s *authService) Register(ctx context.Context, id *identity.Identity, input RegisterInput) (*model.User, bool, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"external_id": id.ExternalID,
	})

	existing, err := s.userRepo.FindByExternalID(id.ExternalID)
	if err == nil {
		return s.signIn(existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"external_id": id.ExternalID,
		})
		return nil, false, storeError(err, nil)
	}

	if id.Email == "" {
		return nil, false, apperrors.InvalidArgument(apperrors.ValidationRequired, "The identity has no email address")
	}
	claimed, err := s.claimPlaceholder(id)
	if err != nil {
		return nil, false, err
	}
	if claimed != nil {
		return s.signIn(claimed)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = id.Name
	}
	now := time.Now()
	user := &model.User{
		ExternalID:  id.ExternalID,
		Email:       strings.ToLower(id.Email),
		DisplayName: displayName,
		Phone:       input.Phone,
		PhotoURL:    input.PhotoURL,
		Role:        model.RoleCustomer,
		IsActive:    true,
		LastLoginAt: &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		// lost a race with a concurrent first sign-in
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := s.userRepo.FindByExternalID(id.ExternalID); findErr == nil {
				return existing, false, nil
			}
		}
		logger.Error("Failed to create user", err, map[string]interface{}{
			"external_id": id.ExternalID,
		})
		return nil, false, storeError(err, nil)
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, true, nil
}

// Logout revokes the presented token when the provider supports it
func (s *authService) Logout(ctx context.Context, id *identity.Identity) error {
	revoker, ok := s.provider.(identity.Revoker)
	if !ok {
		return nil
	}
	if err := revoker.Revoke(ctx, id); err != nil {
		logger.Error("Failed to revoke token", err)
		return apperrors.Unavailable("Could not revoke the session", err)
	}
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, displayName, phone, photoURL string) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	fields := map[string]interface{}{}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		fields["display_name"] = displayName
	}
	if phone != "" {
		fields["phone"] = phone
	}
	if photoURL != "" {
		fields["photo_url"] = photoURL
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			logger.Error("Failed to update profile", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, storeError(err, ErrUserNotFound)
		}
	}
	return s.GetUserByID(userID)
}
