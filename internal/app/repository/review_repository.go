package repository

import (
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	ExistsByUserAndShop(userID, shopID uint) (bool, error)
	FindByShopID(shopID uint, page Page) ([]model.Review, int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review and refreshes the shop's cached rating in the same transaction
func (r *reviewRepository) Create(review *model.Review) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return refreshShopRating(tx, review.ShopID)
	})
	if err != nil {
		logger.Error("Failed to create review", err, map[string]interface{}{
			"shop_id": review.ShopID,
			"user_id": review.UserID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) ExistsByUserAndShop(userID, shopID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Review{}).Where("user_id = ? AND shop_id = ?", userID, shopID).Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) FindByShopID(shopID uint, page Page) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.Model(&model.Review{}).Where("shop_id = ?", shopID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var reviews []model.Review
	err := r.db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "display_name", "photo_url")
	}).
		Where("shop_id = ?", shopID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&reviews).Error
	return reviews, total, err
}
