package service

import (
	"errors"
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewService interface {
	CreateReview(userID, shopID uint, rating int, comment string) (*model.Review, error)
	ListShopReviews(shopID uint, page repository.Page) ([]model.Review, int64, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	shopRepo   repository.ShopRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, shopRepo repository.ShopRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		shopRepo:   shopRepo,
	}
}

// CreateReview stores the user's only review of a shop and refreshes the shop's rating
func (s *reviewService) CreateReview(userID, shopID uint, rating int, comment string) (*model.Review, error) {
	logger.Info("Creating review", map[string]interface{}{
		"user_id": userID,
		"shop_id": shopID,
		"rating":  rating,
	})

	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	shop, err := s.shopRepo.FindByID(shopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	if !shop.IsVerified {
		return nil, ErrShopNotFound
	}

	exists, err := s.reviewRepo.ExistsByUserAndShop(userID, shopID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &model.Review{
		ShopID:  shopID,
		UserID:  userID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewExists
		}
		return nil, storeError(err, nil)
	}
	return review, nil
}

func (s *reviewService) ListShopReviews(shopID uint, page repository.Page) ([]model.Review, int64, error) {
	reviews, total, err := s.reviewRepo.FindByShopID(shopID, page)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return reviews, total, nil
}
