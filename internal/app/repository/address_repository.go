package repository

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressRepository keeps the one-default-per-user invariant and the users.primary_address_id
// mirror consistent. Every mutating method runs in a transaction that locks the owning user row.
type AddressRepository interface {
	Create(address *model.Address, makeDefault bool) error
	FindByUserID(userID uint) ([]model.Address, error)
	FindByIDAndUserID(id, userID uint) (*model.Address, error)
	Update(address *model.Address, makeDefault bool) error
	Delete(userID, addressID uint) (*uint, error)
	SetDefault(userID, addressID uint) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func lockUser(tx *gorm.DB, userID uint) error {
	var user model.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error
}

func setDefaultTx(tx *gorm.DB, userID, addressID uint) error {
	if err := tx.Model(&model.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, addressID, true).
		Update("is_default", false).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Update("is_default", true).Error; err != nil {
		return err
	}
	return tx.Model(&model.User{}).Where("id = ?", userID).Update("primary_address_id", addressID).Error
}

// Create inserts address. The user's first address always becomes the default.
func (r *addressRepository) Create(address *model.Address, makeDefault bool) error {
	logger.Debug("Creating address in database", map[string]interface{}{
		"user_id":      address.UserID,
		"make_default": makeDefault,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, address.UserID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&model.Address{}).Where("user_id = ?", address.UserID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			makeDefault = true
		}

		address.IsDefault = false
		if err := tx.Create(address).Error; err != nil {
			return err
		}
		if makeDefault {
			if err := setDefaultTx(tx, address.UserID, address.ID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create address in database", err, map[string]interface{}{
			"user_id": address.UserID,
		})
		return err
	}

	logger.Debug("Address created in database", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    address.UserID,
		"is_default": address.IsDefault,
	})
	return nil
}

func (r *addressRepository) FindByUserID(userID uint) ([]model.Address, error) {
	logger.Debug("Finding addresses by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var addresses []model.Address
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addresses).Error
	if err != nil {
		logger.Error("Failed to find addresses by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) FindByIDAndUserID(id, userID uint) (*model.Address, error) {
	var address model.Address
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find address in database", err, map[string]interface{}{
				"address_id": id,
				"user_id":    userID,
			})
		}
		return nil, err
	}
	return &address, nil
}

// Update writes the editable fields. The default flag can only be moved onto this address,
// never cleared, so the user always keeps a default while any address exists.
func (r *addressRepository) Update(address *model.Address, makeDefault bool) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, address.UserID); err != nil {
			return err
		}
		if err := tx.Model(address).
			Select("label", "recipient", "phone", "line1", "line2", "city", "state", "postal_code", "country", "latitude", "longitude").
			Updates(address).Error; err != nil {
			return err
		}
		if makeDefault {
			if err := setDefaultTx(tx, address.UserID, address.ID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update address in database", err, map[string]interface{}{
			"address_id": address.ID,
			"user_id":    address.UserID,
		})
		return err
	}
	return nil
}

// Delete removes the address. When it was the default, the most recently created remaining
// address is promoted; when none remain the user's primary pointer is cleared.
// Returns the id of the new default, if any.
func (r *addressRepository) Delete(userID, addressID uint) (*uint, error) {
	logger.Debug("Deleting address from database", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	var newDefault *uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var address model.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			return err
		}
		if err := tx.Delete(&address).Error; err != nil {
			return err
		}

		var user model.User
		if err := tx.Select("id", "primary_address_id").First(&user, userID).Error; err != nil {
			return err
		}
		pointsHere := user.PrimaryAddressID != nil && *user.PrimaryAddressID == addressID
		if !address.IsDefault && !pointsHere {
			return nil
		}

		var next model.Address
		err := tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&next).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Model(&model.User{}).Where("id = ?", userID).Update("primary_address_id", nil).Error
		case err != nil:
			return err
		}
		if err := setDefaultTx(tx, userID, next.ID); err != nil {
			return err
		}
		newDefault = &next.ID
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to delete address from database", err, map[string]interface{}{
				"address_id": addressID,
				"user_id":    userID,
			})
		}
		return nil, err
	}

	logger.Debug("Address deleted from database", map[string]interface{}{
		"address_id":  addressID,
		"new_default": newDefault,
	})
	return newDefault, nil
}

func (r *addressRepository) SetDefault(userID, addressID uint) error {
	logger.Debug("Setting default address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		var address model.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			return err
		}
		return setDefaultTx(tx, userID, addressID)
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to set default address", err, map[string]interface{}{
				"user_id":    userID,
				"address_id": addressID,
			})
		}
		return err
	}
	return nil
}
