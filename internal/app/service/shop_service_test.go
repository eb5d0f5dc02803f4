package service

import (
	"context"
	"math"
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupShopServiceTest(t *testing.T) (ShopService, *recordingPublisher, *gorm.DB) {
	testDB := setupTestDB(t)
	notifications, _ := newTestNotifications(testDB)
	publisher := &recordingPublisher{}
	shopService := NewShopService(
		repository.NewShopRepository(testDB),
		repository.NewUserRepository(testDB),
		notifications,
		publisher,
	)
	return shopService, publisher, testDB
}

func reloadUser(t *testing.T, testDB *gorm.DB, id uint) *model.User {
	var user model.User
	require.NoError(t, testDB.First(&user, id).Error)
	return &user
}

func TestShopService_SubmitShop(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleCustomer)

	shop, err := shopService.SubmitShop(owner.ID, ShopDraft{
		Name:       "  Sharma Stores ",
		Latitude:   28.6139,
		Longitude:  77.2090,
		Categories: []string{"Grocery", " grocery ", "Dairy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sharma Stores", shop.Name)
	assert.Equal(t, model.VerificationPending, shop.VerificationStatus)
	assert.False(t, shop.IsVerified)
	assert.True(t, shop.IsActive)
	assert.ElementsMatch(t, []string{"grocery", "dairy"}, []string(shop.Categories))

	tests := []struct {
		name    string
		draft   ShopDraft
		wantErr error
	}{
		{"missing name", ShopDraft{Name: " ", Latitude: 10, Longitude: 10}, ErrShopNameRequired},
		{"latitude out of range", ShopDraft{Name: "X", Latitude: 91, Longitude: 10}, ErrInvalidLocation},
		{"longitude out of range", ShopDraft{Name: "X", Latitude: 10, Longitude: -181}, ErrInvalidLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shopService.SubmitShop(owner.ID, tt.draft)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
		})
	}
}

func TestShopService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("verified promotes customer owner", func(t *testing.T) {
		shopService, publisher, testDB := setupShopServiceTest(t)
		owner := createTestUser(t, testDB, "owner@example.com", model.RoleCustomer)
		shop := createTestShop(t, testDB, owner.ID, "Corner Shop", 12.97, 77.59, false)

		result, err := shopService.Decide(ctx, shop.ID, model.VerificationVerified, "")
		require.NoError(t, err)
		assert.True(t, result.OwnerPromoted)
		assert.True(t, result.Shop.IsVerified)
		assert.NotNil(t, result.Shop.VerificationDate)
		assert.Equal(t, model.RoleRetailer, reloadUser(t, testDB, owner.ID).Role)
		assert.Equal(t, int64(1), countNotifications(t, testDB, owner.ID, model.NotificationShopVerification))
		assert.Equal(t, []string{events.ShopVerificationDecided}, publisher.keys())
	})

	t.Run("admin owner is never demoted", func(t *testing.T) {
		shopService, _, testDB := setupShopServiceTest(t)
		admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)
		shop := createTestShop(t, testDB, admin.ID, "Admin Shop", 12.97, 77.59, false)

		result, err := shopService.Decide(ctx, shop.ID, model.VerificationVerified, "")
		require.NoError(t, err)
		assert.False(t, result.OwnerPromoted)
		assert.Equal(t, model.RoleAdmin, reloadUser(t, testDB, admin.ID).Role)
	})

	t.Run("rejected keeps role", func(t *testing.T) {
		shopService, _, testDB := setupShopServiceTest(t)
		owner := createTestUser(t, testDB, "owner@example.com", model.RoleCustomer)
		shop := createTestShop(t, testDB, owner.ID, "Corner Shop", 12.97, 77.59, false)

		result, err := shopService.Decide(ctx, shop.ID, model.VerificationRejected, "blurry documents")
		require.NoError(t, err)
		assert.False(t, result.Shop.IsVerified)
		assert.Equal(t, "blurry documents", result.Shop.VerificationNote)
		assert.Equal(t, model.RoleCustomer, reloadUser(t, testDB, owner.ID).Role)
	})

	t.Run("re-deciding overwrites", func(t *testing.T) {
		shopService, _, testDB := setupShopServiceTest(t)
		owner := createTestUser(t, testDB, "owner@example.com", model.RoleCustomer)
		shop := createTestShop(t, testDB, owner.ID, "Corner Shop", 12.97, 77.59, false)

		_, err := shopService.Decide(ctx, shop.ID, model.VerificationVerified, "")
		require.NoError(t, err)
		result, err := shopService.Decide(ctx, shop.ID, model.VerificationRejected, "closed")
		require.NoError(t, err)
		assert.Equal(t, model.VerificationRejected, result.Shop.VerificationStatus)

		stored, err := shopService.GetShop(shop.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsVerified)
	})

	t.Run("invalid decision and unknown shop", func(t *testing.T) {
		shopService, _, _ := setupShopServiceTest(t)

		_, err := shopService.Decide(ctx, 1, model.VerificationPending, "")
		assert.ErrorIs(t, err, ErrInvalidDecision)
		_, err = shopService.Decide(ctx, 9999, model.VerificationVerified, "")
		assert.ErrorIs(t, err, ErrShopNotFound)
	})
}

func TestShopService_ReconcileOwnerRoles(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	stranded := createTestUser(t, testDB, "stranded@example.com", model.RoleCustomer)
	pending := createTestUser(t, testDB, "pending@example.com", model.RoleCustomer)
	createTestShop(t, testDB, stranded.ID, "Verified", 12.97, 77.59, true)
	createTestShop(t, testDB, pending.ID, "Pending", 12.97, 77.59, false)

	promoted, err := shopService.ReconcileOwnerRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
	assert.Equal(t, model.RoleRetailer, reloadUser(t, testDB, stranded.ID).Role)
	assert.Equal(t, model.RoleCustomer, reloadUser(t, testDB, pending.ID).Role)
}

func TestShopService_FindShops(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)

	// around Connaught Place, New Delhi
	lat, lng := 28.6315, 77.2167
	createTestShop(t, testDB, owner.ID, "Near", 28.6325, 77.2167, true)    // ~0.1 km
	createTestShop(t, testDB, owner.ID, "Middle", 28.6500, 77.2167, true)  // ~2 km
	createTestShop(t, testDB, owner.ID, "Far", 28.7500, 77.2167, true)     // ~13 km
	createTestShop(t, testDB, owner.ID, "Hidden", 28.6316, 77.2167, false) // not verified
	inactive := createTestShop(t, testDB, owner.ID, "Closed", 28.6317, 77.2167, true)
	require.NoError(t, testDB.Model(inactive).Update("is_active", false).Error)

	t.Run("within default radius ordered by distance", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng})
		require.NoError(t, err)
		require.Len(t, result.Shops, 2)
		assert.Equal(t, "Near", result.Shops[0].Name)
		assert.Equal(t, "Middle", result.Shops[1].Name)
		require.NotNil(t, result.Shops[0].DistanceKm)
		assert.InDelta(t, 0.11, *result.Shops[0].DistanceKm, 0.02)
		assert.LessOrEqual(t, *result.Shops[0].DistanceKm, *result.Shops[1].DistanceKm)
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("larger radius", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng, RadiusKm: 20})
		require.NoError(t, err)
		require.Len(t, result.Shops, 3)
		assert.Equal(t, "Far", result.Shops[2].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng, RadiusKm: 20, Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, result.Shops, 1)
		assert.Equal(t, "Far", result.Shops[0].Name)
		assert.Equal(t, 2, result.TotalPages)
	})

	t.Run("without center has no distance", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{})
		require.NoError(t, err)
		assert.Len(t, result.Shops, 3)
		for _, shop := range result.Shops {
			assert.Nil(t, shop.DistanceKm)
		}
	})

	t.Run("search filter", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Search: "mid"})
		require.NoError(t, err)
		require.Len(t, result.Shops, 1)
		assert.Equal(t, "Middle", result.Shops[0].Name)
	})

	t.Run("invalid input", func(t *testing.T) {
		badLat := 95.0
		_, err := shopService.FindShops(ShopQuery{Latitude: &badLat, Longitude: &lng})
		assert.ErrorIs(t, err, ErrInvalidSearchInput)
		_, err = shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng, RadiusKm: MaxSearchRadiusKm + 1})
		assert.ErrorIs(t, err, ErrInvalidSearchInput)
	})
}

func TestShopService_FindShops_RadiusBoundary(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)

	// due north along the meridian, where Haversine distance is R times the latitude delta
	lat, lng := 28.6315, 77.2167
	kmPerDegree := util.EarthRadiusKm * math.Pi / 180
	createTestShop(t, testDB, owner.ID, "Inside", lat+4.9/kmPerDegree, lng, true)
	createTestShop(t, testDB, owner.ID, "Outside", lat+5.1/kmPerDegree, lng, true)

	result, err := shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng, RadiusKm: 5})
	require.NoError(t, err)
	require.Len(t, result.Shops, 1)
	assert.Equal(t, "Inside", result.Shops[0].Name)
	assert.InDelta(t, 4.9, *result.Shops[0].DistanceKm, 0.001)
	assert.Equal(t, int64(1), result.Total)
}

func TestShopService_FindShops_Filters(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)

	withCategories := func(name string, categories ...string) {
		shop := createTestShop(t, testDB, owner.ID, name, 12.97, 77.59, true)
		require.NoError(t, testDB.Model(shop).Update("categories", model.StringArray(categories)).Error)
	}
	withCategories("Page Turners", "books", "stationery")
	withCategories("E-Reader Hub", "ebooks")
	withCategories("Kirana", "grocery")
	withCategories("Underscore", "a_b")
	withCategories("Lookalike", "axb")
	createTestShop(t, testDB, owner.ID, "100% Cotton", 12.97, 77.59, true)
	createTestShop(t, testDB, owner.ID, "1000 Threads", 12.97, 77.59, true)

	names := func(result *ShopSearchResult) []string {
		out := make([]string, 0, len(result.Shops))
		for _, shop := range result.Shops {
			out = append(out, shop.Name)
		}
		return out
	}

	t.Run("category matches whole elements only", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Category: " Books "})
		require.NoError(t, err)
		assert.Equal(t, []string{"Page Turners"}, names(result))
	})

	t.Run("category wildcards are literal", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Category: "a_b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Underscore"}, names(result))

		result, err = shopService.FindShops(ShopQuery{Category: "%"})
		require.NoError(t, err)
		assert.Empty(t, result.Shops)
	})

	t.Run("search wildcards are literal", func(t *testing.T) {
		result, err := shopService.FindShops(ShopQuery{Search: "100%"})
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Cotton"}, names(result))
	})

	t.Run("category combined with center", func(t *testing.T) {
		lat, lng := 12.97, 77.59
		result, err := shopService.FindShops(ShopQuery{Latitude: &lat, Longitude: &lng, Category: "grocery"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Kirana", "100% Cotton", "1000 Threads"}, names(result))
	})
}

func TestShopService_Visibility(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleCustomer)
	stranger := createTestUser(t, testDB, "stranger@example.com", model.RoleCustomer)
	shop := createTestShop(t, testDB, owner.ID, "Pending", 12.97, 77.59, false)

	_, err := shopService.GetVisibleShop(shop.ID, stranger.ID, stranger.Role)
	assert.ErrorIs(t, err, ErrShopNotFound)
	_, err = shopService.GetVisibleShop(shop.ID, 0, "")
	assert.ErrorIs(t, err, ErrShopNotFound)

	visible, err := shopService.GetVisibleShop(shop.ID, owner.ID, owner.Role)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, visible.ID)
	_, err = shopService.GetVisibleShop(shop.ID, 0, model.RoleAdmin)
	assert.NoError(t, err)
}

func TestShopService_UpdateShop(t *testing.T) {
	shopService, _, testDB := setupShopServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)
	other := createTestUser(t, testDB, "other@example.com", model.RoleRetailer)
	shop := createTestShop(t, testDB, owner.ID, "Old Name", 12.97, 77.59, true)

	name := "New Name"
	updated, err := shopService.UpdateShop(owner.ID, shop.ID, ShopMutation{Name: &name, Categories: []string{"Bakery"}})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, []string{"bakery"}, []string(updated.Categories))

	_, err = shopService.UpdateShop(other.ID, shop.ID, ShopMutation{Name: &name})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	badLat := -100.0
	_, err = shopService.UpdateShop(owner.ID, shop.ID, ShopMutation{Latitude: &badLat})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}
