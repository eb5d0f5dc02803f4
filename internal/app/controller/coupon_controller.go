package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{
		couponService: couponService,
	}
}

type CreateCouponRequest struct {
	Code           string             `json:"code" binding:"required,max=50"`
	Description    string             `json:"description"`
	DiscountType   model.DiscountType `json:"discount_type" binding:"required,oneof=percentage flat"`
	Value          float64            `json:"value" binding:"required,gt=0"`
	MaxDiscount    float64            `json:"max_discount" binding:"gte=0"`
	MinOrderAmount float64            `json:"min_order_amount" binding:"gte=0"`
	UsageLimit     int                `json:"usage_limit" binding:"gte=0"`
	ValidFrom      *time.Time         `json:"valid_from"`
	ValidUntil     *time.Time         `json:"valid_until"`
}

// CreateCoupon creates a discount code
// POST /api/v1/admin/coupons
func (ctrl *CouponController) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := ctrl.couponService.CreateCoupon(service.CouponInput{
		Code:           req.Code,
		Description:    req.Description,
		DiscountType:   req.DiscountType,
		Value:          req.Value,
		MaxDiscount:    req.MaxDiscount,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
	})
	if err != nil {
		errors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// ListCoupons lists every coupon
// GET /api/v1/admin/coupons?page=&limit=
func (ctrl *CouponController) ListCoupons(c *gin.Context) {
	page := pageFromQuery(c)
	coupons, total, err := ctrl.couponService.ListCoupons(page)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "coupons", coupons, total, page)
}

// DeactivateCoupon stops a coupon from being redeemed
// PUT /api/v1/admin/coupons/:id/deactivate
func (ctrl *CouponController) DeactivateCoupon(c *gin.Context) {
	couponID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.couponService.DeactivateCoupon(couponID); err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deactivated"})
}
