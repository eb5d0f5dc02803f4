package repository

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindByCode(code string) (*model.Coupon, error)
	List(page Page) ([]model.Coupon, int64, error)
	Deactivate(id uint) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon", err, map[string]interface{}{"code": coupon.Code})
		return err
	}
	return nil
}

func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find coupon by code", err)
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) List(page Page) ([]model.Coupon, int64, error) {
	var total int64
	if err := r.db.Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var coupons []model.Coupon
	err := r.db.Order("created_at DESC, id DESC").Offset(page.Offset()).Limit(page.Limit).Find(&coupons).Error
	return coupons, total, err
}

func (r *couponRepository) Deactivate(id uint) error {
	result := r.db.Model(&model.Coupon{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate coupon", result.Error, map[string]interface{}{"coupon_id": id})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
