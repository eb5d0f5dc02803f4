package repository

import (
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserFilter struct {
	Role     *model.UserRole
	IsActive *bool
	Search   string
	Page     Page
}

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByExternalID(externalID string) (*model.User, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	ClaimExternalID(id uint, current, externalID string) (bool, error)
	PromoteToRetailer(id uint) (bool, error)
	List(filter UserFilter) ([]model.User, int64, error)
	Delete(id uint) error
	FindCustomerOwnersOfVerifiedShops() ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by ID", err, map[string]interface{}{
				"user_id": id,
			})
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by email", err)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByExternalID(externalID string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("external_id = ?", externalID).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by external ID", err)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	logger.Debug("Updating user fields", map[string]interface{}{
		"user_id": id,
		"fields":  len(fields),
	})

	result := r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		logger.Error("Failed to update user fields", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClaimExternalID replaces the external id only while it still equals current,
// so a placeholder can be claimed once.
func (r *userRepository) ClaimExternalID(id uint, current, externalID string) (bool, error) {
	result := r.db.Model(&model.User{}).
		Where("id = ? AND external_id = ?", id, current).
		Update("external_id", externalID)
	if result.Error != nil {
		logger.Error("Failed to claim external ID", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PromoteToRetailer sets role=retailer only while the user is a customer.
// Re-running it is a no-op; admins are never demoted.
func (r *userRepository) PromoteToRetailer(id uint) (bool, error) {
	result := r.db.Model(&model.User{}).
		Where("id = ? AND role = ?", id, model.RoleCustomer).
		Update("role", model.RoleRetailer)
	if result.Error != nil {
		logger.Error("Failed to promote user to retailer", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return false, result.Error
	}

	promoted := result.RowsAffected > 0
	logger.Debug("Retailer promotion applied", map[string]interface{}{
		"user_id":  id,
		"promoted": promoted,
	})
	return promoted, nil
}

func (r *userRepository) List(filter UserFilter) ([]model.User, int64, error) {
	query := r.db.Model(&model.User{})
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := model.ContainsPattern(filter.Search)
		query = query.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var users []model.User
	if err := query.Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}
	return users, total, nil
}

// Delete hard-deletes a user together with their address book
func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&model.Address{}).Error; err != nil {
			logger.Error("Failed to delete user addresses", err, map[string]interface{}{"user_id": id})
			return err
		}
		for _, table := range []interface{}{&model.CartItem{}, &model.WishlistItem{}, &model.Notification{}} {
			if err := tx.Where("user_id = ?", id).Delete(table).Error; err != nil {
				logger.Error("Failed to delete user-owned rows", err, map[string]interface{}{"user_id": id})
				return err
			}
		}
		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			logger.Error("Failed to delete user", result.Error, map[string]interface{}{"user_id": id})
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindCustomerOwnersOfVerifiedShops lists users that own a verified shop but are still customers
func (r *userRepository) FindCustomerOwnersOfVerifiedShops() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.User{}).
		Distinct().
		Joins("JOIN shops ON shops.owner_id = users.id AND shops.deleted_at IS NULL").
		Where("shops.verification_status = ? AND users.role = ?", model.VerificationVerified, model.RoleCustomer).
		Pluck("users.id", &ids).Error
	if err != nil {
		logger.Error("Failed to find owners pending promotion", err)
		return nil, err
	}
	return ids, nil
}
