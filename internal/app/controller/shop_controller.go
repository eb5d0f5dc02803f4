package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type ShopController struct {
	shopService service.ShopService
}

func NewShopController(shopService service.ShopService) *ShopController {
	return &ShopController{
		shopService: shopService,
	}
}

type SubmitShopRequest struct {
	Name                 string                `json:"name" binding:"required,max=200"`
	Description          string                `json:"description"`
	Phone                string                `json:"phone" binding:"max=20"`
	Email                string                `json:"email" binding:"omitempty,email"`
	Address              string                `json:"address" binding:"required"`
	City                 string                `json:"city"`
	State                string                `json:"state"`
	PostalCode           string                `json:"postal_code"`
	Latitude             *float64              `json:"latitude" binding:"required"`
	Longitude            *float64              `json:"longitude" binding:"required"`
	Categories           []string              `json:"categories"`
	LogoURL              string                `json:"logo_url"`
	CoverImageURL        string                `json:"cover_image_url"`
	VerificationDocument string                `json:"verification_document"`
	BusinessHours        []model.BusinessHours `json:"business_hours"`
}

type UpdateShopRequest struct {
	Name                 *string               `json:"name" binding:"omitempty,max=200"`
	Description          *string               `json:"description"`
	Phone                *string               `json:"phone" binding:"omitempty,max=20"`
	Email                *string               `json:"email" binding:"omitempty,email"`
	Address              *string               `json:"address"`
	City                 *string               `json:"city"`
	State                *string               `json:"state"`
	PostalCode           *string               `json:"postal_code"`
	Latitude             *float64              `json:"latitude"`
	Longitude            *float64              `json:"longitude"`
	Categories           []string              `json:"categories"`
	LogoURL              *string               `json:"logo_url"`
	CoverImageURL        *string               `json:"cover_image_url"`
	VerificationDocument *string               `json:"verification_document"`
	BusinessHours        []model.BusinessHours `json:"business_hours"`
}

type DecideVerificationRequest struct {
	Decision model.VerificationStatus `json:"decision" binding:"required,oneof=verified rejected"`
	Note     string                   `json:"note" binding:"max=1000"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// FindShops searches verified, active shops, optionally around a center point
// GET /api/v1/shops?lat=&lng=&radius=&category=&search=&page=&limit=
func (ctrl *ShopController) FindShops(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	lat, ok := optionalFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := optionalFloat(c, "lng")
	if !ok {
		return
	}
	if (lat == nil) != (lng == nil) {
		errors.BadRequest(c, errors.ValidationRequired, "lat and lng must be given together")
		return
	}
	radius, ok := optionalFloat(c, "radius")
	if !ok {
		return
	}

	query := service.ShopQuery{
		Latitude:  lat,
		Longitude: lng,
		Category:  c.Query("category"),
		Search:    c.Query("search"),
	}
	if radius != nil {
		query.RadiusKm = *radius
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := ctrl.shopService.FindShops(query)
	if err != nil {
		log.Warn("Shop search failed", map[string]interface{}{
			"error": err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Debug("Shops found", map[string]interface{}{
		"count": len(result.Shops),
		"total": result.Total,
	})
	c.JSON(http.StatusOK, result)
}

// GetShop returns one shop. Shops not yet admitted are visible to their owner and admins only.
// GET /api/v1/shops/:id
func (ctrl *ShopController) GetShop(c *gin.Context) {
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	viewerID, _ := middleware.GetUserID(c)
	viewerRole, _ := middleware.GetUserRole(c)

	shop, err := ctrl.shopService.GetVisibleShop(shopID, viewerID, viewerRole)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shop": shop})
}

// SubmitShop registers a shop for verification
// POST /api/v1/shops
func (ctrl *ShopController) SubmitShop(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitShopRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := ctrl.shopService.SubmitShop(userID, service.ShopDraft{
		Name:                 req.Name,
		Description:          req.Description,
		Phone:                req.Phone,
		Email:                req.Email,
		Address:              req.Address,
		City:                 req.City,
		State:                req.State,
		PostalCode:           req.PostalCode,
		Latitude:             *req.Latitude,
		Longitude:            *req.Longitude,
		Categories:           req.Categories,
		LogoURL:              req.LogoURL,
		CoverImageURL:        req.CoverImageURL,
		VerificationDocument: req.VerificationDocument,
		BusinessHours:        req.BusinessHours,
	})
	if err != nil {
		log.Warn("Shop submission failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Shop submitted", map[string]interface{}{
		"user_id": userID,
		"shop_id": shop.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Shop submitted for verification",
		"shop":    shop,
	})
}

// ListMyShops returns shops owned by the current user, in any verification state
// GET /api/v1/shops/mine
func (ctrl *ShopController) ListMyShops(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	shops, err := ctrl.shopService.ListMyShops(userID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"shops": shops,
		"count": len(shops),
	})
}

// UpdateShop edits the owner's shop profile
// PUT /api/v1/shops/:id
func (ctrl *ShopController) UpdateShop(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateShopRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := ctrl.shopService.UpdateShop(userID, shopID, service.ShopMutation{
		Name:                 req.Name,
		Description:          req.Description,
		Phone:                req.Phone,
		Email:                req.Email,
		Address:              req.Address,
		City:                 req.City,
		State:                req.State,
		PostalCode:           req.PostalCode,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		Categories:           req.Categories,
		LogoURL:              req.LogoURL,
		CoverImageURL:        req.CoverImageURL,
		VerificationDocument: req.VerificationDocument,
		BusinessHours:        req.BusinessHours,
	})
	if err != nil {
		log.Warn("Shop update failed", map[string]interface{}{
			"user_id": userID,
			"shop_id": shopID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shop": shop})
}

// DecideVerification records an admin decision on a shop
// PUT /api/v1/admin/shops/:id/verification
func (ctrl *ShopController) DecideVerification(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DecideVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.shopService.Decide(c.Request.Context(), shopID, req.Decision, req.Note)
	if err != nil {
		log.Warn("Verification decision failed", map[string]interface{}{
			"shop_id": shopID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("Shop verification decided", map[string]interface{}{
		"shop_id":        shopID,
		"admin_id":       adminID,
		"decision":       req.Decision,
		"owner_promoted": result.OwnerPromoted,
	})
	c.JSON(http.StatusOK, result)
}

// ListShopsForAdmin lists shops in any state, optionally filtered by verification status
// GET /api/v1/admin/shops?status=&page=&limit=
func (ctrl *ShopController) ListShopsForAdmin(c *gin.Context) {
	var status *model.VerificationStatus
	if raw := c.Query("status"); raw != "" {
		s := model.VerificationStatus(raw)
		status = &s
	}
	page := pageFromQuery(c)

	shops, total, err := ctrl.shopService.ListForAdmin(status, page)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "shops", shops, total, page)
}

// SetShopActive activates or suspends a shop
// PUT /api/v1/admin/shops/:id/active
func (ctrl *ShopController) SetShopActive(c *gin.Context) {
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := ctrl.shopService.SetActive(shopID, *req.IsActive)
	if err != nil {
		errors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Shop activation changed", map[string]interface{}{
		"shop_id":   shopID,
		"is_active": *req.IsActive,
	})
	c.JSON(http.StatusOK, gin.H{"shop": shop})
}
