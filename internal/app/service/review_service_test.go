package service

import (
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService(t *testing.T) {
	testDB := setupTestDB(t)
	reviewService := NewReviewService(repository.NewReviewRepository(testDB), repository.NewShopRepository(testDB))
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)
	shop := createTestShop(t, testDB, owner.ID, "Kirana", 19.07, 72.87, true)
	pending := createTestShop(t, testDB, owner.ID, "Pending", 19.07, 72.87, false)

	alice := createTestUser(t, testDB, "alice@example.com", model.RoleCustomer)
	bob := createTestUser(t, testDB, "bob@example.com", model.RoleCustomer)

	_, err := reviewService.CreateReview(alice.ID, shop.ID, 5, "  Fresh stock  ")
	require.NoError(t, err)
	review, err := reviewService.CreateReview(bob.ID, shop.ID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, review.ShopID)

	var refreshed model.Shop
	require.NoError(t, testDB.First(&refreshed, shop.ID).Error)
	assert.Equal(t, 3.5, refreshed.Rating)
	assert.Equal(t, 2, refreshed.ReviewCount)

	_, err = reviewService.CreateReview(alice.ID, shop.ID, 4, "changed my mind")
	assert.ErrorIs(t, err, ErrReviewExists)

	_, err = reviewService.CreateReview(alice.ID, shop.ID, 6, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = reviewService.CreateReview(alice.ID, pending.ID, 4, "")
	assert.ErrorIs(t, err, ErrShopNotFound)

	reviews, total, err := reviewService.ListShopReviews(shop.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reviews, 2)
}
