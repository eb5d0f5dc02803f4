package service

import (
	"context"
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/storage"
	"github.com/locallens/locallens-backend/pkg/logger"
)

type BannerInput struct {
	Title     string
	ImageURL  string
	StorageID string
	LinkURL   string
	IsActive  bool
}

type BannerService interface {
	CreateBanner(input BannerInput) (*model.Banner, error)
	DeleteBanner(ctx context.Context, id uint) error
	ListBanners(activeOnly bool) ([]model.Banner, error)
	MoveBanner(id uint, up bool) (*model.Banner, error)
}

type bannerService struct {
	bannerRepo repository.BannerRepository
	media      storage.MediaStorage
}

func NewBannerService(bannerRepo repository.BannerRepository, media storage.MediaStorage) BannerService {
	return &bannerService{bannerRepo: bannerRepo, media: media}
}

func (s *bannerService) CreateBanner(input BannerInput) (*model.Banner, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.ImageURL) == "" {
		return nil, apperrors.InvalidArgument(apperrors.ValidationRequired, "Banner title and image are required")
	}
	order, err := s.bannerRepo.NextOrder()
	if err != nil {
		return nil, storeError(err, nil)
	}

	banner := &model.Banner{
		Title:     strings.TrimSpace(input.Title),
		ImageURL:  input.ImageURL,
		StorageID: input.StorageID,
		LinkURL:   input.LinkURL,
		Order:     order,
		IsActive:  input.IsActive,
	}
	if err := s.bannerRepo.Create(banner); err != nil {
		return nil, storeError(err, nil)
	}

	logger.Info("Banner created", map[string]interface{}{
		"banner_id": banner.ID,
		"order":     banner.Order,
	})
	return banner, nil
}

func (s *bannerService) DeleteBanner(ctx context.Context, id uint) error {
	banner, err := s.bannerRepo.FindByID(id)
	if err != nil {
		return storeError(err, ErrBannerNotFound)
	}
	if err := s.bannerRepo.Delete(id); err != nil {
		return storeError(err, ErrBannerNotFound)
	}

	if s.media != nil && banner.StorageID != "" {
		if err := s.media.Delete(ctx, banner.StorageID); err != nil {
			logger.Warn("Failed to delete banner image", map[string]interface{}{
				"banner_id":  id,
				"storage_id": banner.StorageID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (s *bannerService) ListBanners(activeOnly bool) ([]model.Banner, error) {
	banners, err := s.bannerRepo.List(activeOnly)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return banners, nil
}

// MoveBanner swaps the banner with its neighbour. At either edge it returns the banner unchanged.
func (s *bannerService) MoveBanner(id uint, up bool) (*model.Banner, error) {
	banner, err := s.bannerRepo.SwapWithNeighbor(id, up)
	if err != nil {
		return nil, storeError(err, ErrBannerNotFound)
	}
	return banner, nil
}
