package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

// UserController serves admin user moderation
type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// ListUsers lists accounts with optional role, active and search filters
// GET /api/v1/admin/users?role=&is_active=&search=&page=&limit=
func (ctrl *UserController) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Search: c.Query("search"),
		Page:   pageFromQuery(c),
	}
	if raw := c.Query("role"); raw != "" {
		role := model.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			errors.BadRequest(c, errors.ValidationInvalidFormat, "is_active must be true or false")
			return
		}
		filter.IsActive = &active
	}

	users, total, err := ctrl.userService.ListUsers(filter)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "users", users, total, filter.Page)
}

// SetUserActive activates or deactivates an account
// PUT /api/v1/admin/users/:id/active
func (ctrl *UserController) SetUserActive(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.userService.SetActive(adminID, userID, *req.IsActive)
	if err != nil {
		errors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User activation changed", map[string]interface{}{
		"admin_id":  adminID,
		"user_id":   userID,
		"is_active": *req.IsActive,
	})
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes an account
// DELETE /api/v1/admin/users/:id
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.DeleteUser(adminID, userID); err != nil {
		errors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User deleted", map[string]interface{}{
		"admin_id": adminID,
		"user_id":  userID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
