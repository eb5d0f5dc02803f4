package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type BannerController struct {
	bannerService service.BannerService
}

func NewBannerController(bannerService service.BannerService) *BannerController {
	return &BannerController{
		bannerService: bannerService,
	}
}

type CreateBannerRequest struct {
	Title     string `json:"title" binding:"required,max=200"`
	ImageURL  string `json:"image_url" binding:"required,url"`
	StorageID string `json:"storage_id"`
	LinkURL   string `json:"link_url" binding:"omitempty,url"`
	IsActive  *bool  `json:"is_active"`
}

type MoveBannerRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// ListActiveBanners returns active banners in display order
// GET /api/v1/banners
func (ctrl *BannerController) ListActiveBanners(c *gin.Context) {
	banners, err := ctrl.bannerService.ListBanners(true)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// ListAllBanners returns every banner for the admin console
// GET /api/v1/admin/banners
func (ctrl *BannerController) ListAllBanners(c *gin.Context) {
	banners, err := ctrl.bannerService.ListBanners(false)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// CreateBanner appends a banner at the end of the display order
// POST /api/v1/admin/banners
func (ctrl *BannerController) CreateBanner(c *gin.Context) {
	var req CreateBannerRequest
	if !bindJSON(c, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	banner, err := ctrl.bannerService.CreateBanner(service.BannerInput{
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		StorageID: req.StorageID,
		LinkURL:   req.LinkURL,
		IsActive:  active,
	})
	if err != nil {
		errors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Banner created", map[string]interface{}{
		"banner_id": banner.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"banner": banner})
}

// DeleteBanner removes a banner and its image
// DELETE /api/v1/admin/banners/:id
func (ctrl *BannerController) DeleteBanner(c *gin.Context) {
	bannerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.bannerService.DeleteBanner(c.Request.Context(), bannerID); err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner deleted"})
}

// MoveBanner swaps a banner with its neighbour
// PUT /api/v1/admin/banners/:id/move
func (ctrl *BannerController) MoveBanner(c *gin.Context) {
	bannerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MoveBannerRequest
	if !bindJSON(c, &req) {
		return
	}

	banner, err := ctrl.bannerService.MoveBanner(bannerID, req.Direction == "up")
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": banner})
}
