package service

import (
	"errors"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponInput struct {
	Code           string
	Description    string
	DiscountType   model.DiscountType
	Value          float64
	MaxDiscount    float64
	MinOrderAmount float64
	UsageLimit     int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
}

type CouponService interface {
	CreateCoupon(input CouponInput) (*model.Coupon, error)
	ListCoupons(page repository.Page) ([]model.Coupon, int64, error)
	DeactivateCoupon(id uint) error
}

type couponService struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponService{couponRepo: couponRepo}
}

func (in CouponInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return apperrors.InvalidArgument(apperrors.ValidationRequired, "Coupon code is required")
	}
	switch in.DiscountType {
	case model.DiscountPercentage:
		if in.Value <= 0 || in.Value > 100 {
			return apperrors.InvalidArgument(apperrors.ValidationInvalidRange, "Percentage must be between 0 and 100")
		}
	case model.DiscountFlat:
		if in.Value <= 0 {
			return apperrors.InvalidArgument(apperrors.ValidationInvalidRange, "Flat discount must be positive")
		}
	default:
		return apperrors.InvalidArgument(apperrors.ValidationInvalidInput, "Discount type must be percentage or flat")
	}
	if in.MaxDiscount < 0 || in.MinOrderAmount < 0 || in.UsageLimit < 0 {
		return apperrors.InvalidArgument(apperrors.ValidationInvalidRange, "Coupon limits cannot be negative")
	}
	if in.ValidFrom != nil && in.ValidUntil != nil && in.ValidUntil.Before(*in.ValidFrom) {
		return apperrors.InvalidArgument(apperrors.ValidationInvalidRange, "Coupon validity window is empty")
	}
	return nil
}

func (s *couponService) CreateCoupon(input CouponInput) (*model.Coupon, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	coupon := &model.Coupon{
		Code:           strings.ToUpper(strings.TrimSpace(input.Code)),
		Description:    input.Description,
		DiscountType:   input.DiscountType,
		Value:          input.Value,
		MaxDiscount:    input.MaxDiscount,
		MinOrderAmount: input.MinOrderAmount,
		UsageLimit:     input.UsageLimit,
		ValidFrom:      input.ValidFrom,
		ValidUntil:     input.ValidUntil,
		IsActive:       true,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponExists
		}
		return nil, storeError(err, nil)
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return coupon, nil
}

func (s *couponService) ListCoupons(page repository.Page) ([]model.Coupon, int64, error) {
	coupons, total, err := s.couponRepo.List(page)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return coupons, total, nil
}

func (s *couponService) DeactivateCoupon(id uint) error {
	if err := s.couponRepo.Deactivate(id); err != nil {
		return storeError(err, ErrCouponNotFound)
	}
	logger.Info("Coupon deactivated", map[string]interface{}{
		"coupon_id": id,
	})
	return nil
}
