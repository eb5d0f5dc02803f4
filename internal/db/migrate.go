package db

import (
	"errors"
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Address{},
		&model.Shop{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusUpdate{},
		&model.Reservation{},
		&model.ReservationItem{},
		&model.ReservationStatusUpdate{},
		&model.Banner{},
		&model.Coupon{},
		&model.Review{},
		&model.Notification{},
		&model.WishlistItem{},
		&model.CartItem{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedAdmin makes sure the account with email has the admin role. A missing account is
// created with a placeholder external id, which registration claims on the first sign-in
// with a verified email.
func SeedAdmin(database *gorm.DB, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var user model.User
	err := database.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			ExternalID:  model.PlaceholderExternalIDPrefix + email,
			Email:       email,
			DisplayName: "Administrator",
			Role:        model.RoleAdmin,
			IsActive:    true,
		}
		if err := database.Create(&user).Error; err != nil {
			logger.Error("Failed to create bootstrap admin", err, map[string]interface{}{"email": email})
			return err
		}
		logger.Info("Bootstrap admin created", map[string]interface{}{"user_id": user.ID, "email": email})
		return nil
	case err != nil:
		return err
	}

	if user.Role == model.RoleAdmin {
		return nil
	}
	if err := database.Model(&model.User{}).Where("id = ?", user.ID).Update("role", model.RoleAdmin).Error; err != nil {
		logger.Error("Failed to promote bootstrap admin", err, map[string]interface{}{"user_id": user.ID})
		return err
	}
	logger.Info("Bootstrap admin promoted", map[string]interface{}{"user_id": user.ID, "email": email})
	return nil
}
