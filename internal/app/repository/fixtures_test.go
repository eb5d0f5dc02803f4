package repository

import (
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{
		ExternalID: "uid-" + email,
		Email:      email,
		Role:       role,
		IsActive:   true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func seedShop(t *testing.T, testDB *gorm.DB, ownerID uint, name string, lat, lng float64, status model.VerificationStatus) *model.Shop {
	shop := &model.Shop{
		OwnerID:            ownerID,
		Name:               name,
		Latitude:           lat,
		Longitude:          lng,
		Categories:         model.StringArray{"grocery"},
		VerificationStatus: status,
		IsVerified:         status == model.VerificationVerified,
		IsActive:           true,
	}
	require.NoError(t, testDB.Create(shop).Error)
	return shop
}

func seedProduct(t *testing.T, testDB *gorm.DB, shopID uint, name string, stock int) *model.Product {
	product := &model.Product{
		ShopID:            shopID,
		Name:              name,
		BasePrice:         100,
		AvailableQuantity: stock,
		IsActive:          true,
		IsAvailable:       true,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}
