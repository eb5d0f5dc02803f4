package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// CreateReview reviews a shop; one review per customer and shop
// POST /api/v1/shops/:id/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := ctrl.reviewService.CreateReview(userID, shopID, req.Rating, req.Comment)
	if err != nil {
		log.Warn("Review creation failed", map[string]interface{}{
			"user_id": userID,
			"shop_id": shopID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Review created", map[string]interface{}{
		"review_id": review.ID,
		"shop_id":   shopID,
	})
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListShopReviews lists a shop's reviews, newest first
// GET /api/v1/shops/:id/reviews?page=&limit=
func (ctrl *ReviewController) ListShopReviews(c *gin.Context) {
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page := pageFromQuery(c)

	reviews, total, err := ctrl.reviewService.ListShopReviews(shopID, page)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "reviews", reviews, total, page)
}
