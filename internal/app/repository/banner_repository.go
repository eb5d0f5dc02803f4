package repository

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BannerRepository interface {
	Create(banner *model.Banner) error
	FindByID(id uint) (*model.Banner, error)
	List(activeOnly bool) ([]model.Banner, error)
	Delete(id uint) error
	NextOrder() (int, error)
	SwapWithNeighbor(id uint, up bool) (*model.Banner, error)
}

type bannerRepository struct {
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &bannerRepository{db: db}
}

func (r *bannerRepository) Create(banner *model.Banner) error {
	if err := r.db.Create(banner).Error; err != nil {
		logger.Error("Failed to create banner in database", err, map[string]interface{}{
			"title": banner.Title,
		})
		return err
	}
	return nil
}

func (r *bannerRepository) FindByID(id uint) (*model.Banner, error) {
	var banner model.Banner
	if err := r.db.First(&banner, id).Error; err != nil {
		return nil, err
	}
	return &banner, nil
}

func (r *bannerRepository) List(activeOnly bool) ([]model.Banner, error) {
	query := r.db.Model(&model.Banner{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var banners []model.Banner
	if err := query.Order("display_order ASC, id ASC").Find(&banners).Error; err != nil {
		logger.Error("Failed to list banners", err)
		return nil, err
	}
	return banners, nil
}

func (r *bannerRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Banner{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete banner", result.Error, map[string]interface{}{"banner_id": id})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextOrder returns the position after the current last banner
func (r *bannerRepository) NextOrder() (int, error) {
	var max *int
	if err := r.db.Model(&model.Banner{}).Select("MAX(display_order)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// SwapWithNeighbor exchanges the order value of the banner with the adjacent one above (up)
// or below. At either edge the banner is returned unchanged.
func (r *bannerRepository) SwapWithNeighbor(id uint, up bool) (*model.Banner, error) {
	var moved model.Banner
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&moved, id).Error; err != nil {
			return err
		}

		var neighbor model.Banner
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"})
		if up {
			query = query.Where("display_order < ? OR (display_order = ? AND id < ?)", moved.Order, moved.Order, moved.ID).
				Order("display_order DESC, id DESC")
		} else {
			query = query.Where("display_order > ? OR (display_order = ? AND id > ?)", moved.Order, moved.Order, moved.ID).
				Order("display_order ASC, id ASC")
		}
		err := query.First(&neighbor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		movedOrder, neighborOrder := neighbor.Order, moved.Order
		if movedOrder == neighborOrder {
			// equal positions: separate them so the swap is visible
			if up {
				movedOrder--
			} else {
				movedOrder++
			}
		}
		if err := tx.Model(&model.Banner{}).Where("id = ?", moved.ID).Update("display_order", movedOrder).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Banner{}).Where("id = ?", neighbor.ID).Update("display_order", neighborOrder).Error; err != nil {
			return err
		}
		moved.Order = movedOrder
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to swap banner order", err, map[string]interface{}{"banner_id": id})
		}
		return nil, err
	}
	return &moved, nil
}
