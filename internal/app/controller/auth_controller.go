package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	DisplayName string `json:"display_name" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=20"`
	PhotoURL    string `json:"photo_url" binding:"omitempty,url"`
}

type UpdateMeRequest struct {
	DisplayName string `json:"display_name" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=20"`
	PhotoURL    string `json:"photo_url" binding:"omitempty,url"`
}

// Register creates the account for the verified identity, or returns the existing one
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := middleware.GetIdentity(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req RegisterRequest
	// the body is optional
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	user, created, err := ctrl.authService.Register(c.Request.Context(), id, service.RegisterInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		log.Warn("Registration failed", map[string]interface{}{
			"external_id": id.ExternalID,
			"error":       err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	log.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"created": created,
	})
	c.JSON(status, gin.H{
		"user":    user,
		"created": created,
	})
}

// GetMe returns the current user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe updates the current user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.DisplayName, req.Phone, req.PhotoURL)
	if err != nil {
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout revokes the presented token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), id); err != nil {
		errors.Respond(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	middleware.GetLoggerFromContext(c).Info("User logged out", map[string]interface{}{
		"user_id": userID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
