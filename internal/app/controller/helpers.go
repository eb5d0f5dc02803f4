package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

// requireUserID reads the authenticated user id and answers 401 when it is absent
func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

// parseIDParam parses a positive numeric path parameter and answers 400 otherwise
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body into req and renders field errors on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		if fields := errors.ParseBindingError(err); fields != nil {
			errors.RespondWithValidationError(c, fields)
			return false
		}
		errors.BadRequest(c, errors.ValidationInvalidFormat, "Request body is not valid JSON")
		return false
	}
	return true
}

// pageFromQuery reads page and limit; bad values fall back to defaults
func pageFromQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}

// paginated renders a list page in the shared envelope
func paginated(c *gin.Context, key string, items interface{}, total int64, page repository.Page) {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	c.JSON(http.StatusOK, gin.H{
		key:           items,
		"total":       total,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": totalPages,
	})
}

// optionalFloat parses a query value, returning nil when absent
func optionalFloat(c *gin.Context, key string) (*float64, bool) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidFormat, key+" must be a number")
		return nil, false
	}
	return &v, true
}
