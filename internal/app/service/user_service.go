package service

import (
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/pkg/logger"
)

// UserService is the admin moderation surface
type UserService interface {
	ListUsers(filter repository.UserFilter) ([]model.User, int64, error)
	SetActive(actorID, userID uint, active bool) (*model.User, error)
	DeleteUser(actorID, userID uint) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(filter repository.UserFilter) ([]model.User, int64, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, 0, ErrInvalidRoleFilter
	}
	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return users, total, nil
}

// SetActive toggles an account. Admins cannot deactivate themselves.
func (s *userService) SetActive(actorID, userID uint, active bool) (*model.User, error) {
	logger.Info("Setting user active flag", map[string]interface{}{
		"actor_id":  actorID,
		"user_id":   userID,
		"is_active": active,
	})

	if actorID == userID && !active {
		return nil, ErrSelfModeration
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) DeleteUser(actorID, userID uint) error {
	logger.Info("Deleting user", map[string]interface{}{
		"actor_id": actorID,
		"user_id":  userID,
	})

	if actorID == userID {
		return ErrSelfModeration
	}
	if err := s.userRepo.Delete(userID); err != nil {
		return storeError(err, ErrUserNotFound)
	}
	return nil
}
