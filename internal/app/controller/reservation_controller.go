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

const pickupDateLayout = "2006-01-02"

type ReservationController struct {
	reservationService service.ReservationService
}

func NewReservationController(reservationService service.ReservationService) *ReservationController {
	return &ReservationController{
		reservationService: reservationService,
	}
}

type ReservationItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type CreateReservationRequest struct {
	ShopID     uint                     `json:"shop_id" binding:"required"`
	Items      []ReservationItemRequest `json:"items" binding:"required,min=1,dive"`
	PickupDate string                   `json:"pickup_date" binding:"required"` // YYYY-MM-DD
	TimeSlot   model.TimeSlot           `json:"pickup_time_slot"`
	ExpiryDate *time.Time               `json:"expiry_date"`
	Notes      string                   `json:"notes" binding:"max=1000"`
}

type UpdateReservationStatusRequest struct {
	Status model.ReservationStatus `json:"status" binding:"required"`
	Note   string                  `json:"note" binding:"max=1000"`
}

// CreateReservation books items for in-store pickup
// POST /api/v1/reservations
func (ctrl *ReservationController) CreateReservation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	pickupDate, err := time.Parse(pickupDateLayout, req.PickupDate)
	if err != nil {
		errors.Respond(c, service.ErrInvalidPickup)
		return
	}

	items := make([]service.ReservationItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.ReservationItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	reservation, err := ctrl.reservationService.CreateReservation(c.Request.Context(), userID, service.CreateReservationInput{
		ShopID:     req.ShopID,
		Items:      items,
		PickupDate: pickupDate,
		TimeSlot:   req.TimeSlot,
		ExpiryDate: req.ExpiryDate,
		Notes:      req.Notes,
	})
	if err != nil {
		log.Warn("Reservation creation failed", map[string]interface{}{
			"user_id": userID,
			"shop_id": req.ShopID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Reservation created", map[string]interface{}{
		"reservation_id":     reservation.ID,
		"reservation_number": reservation.ReservationNumber,
	})
	c.JSON(http.StatusCreated, gin.H{"reservation": reservation})
}

// ListMyReservations returns the caller's reservations
// GET /api/v1/reservations?page=&limit=
func (ctrl *ReservationController) ListMyReservations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page := pageFromQuery(c)

	reservations, total, err := ctrl.reservationService.ListMyReservations(userID, page)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "reservations", reservations, total, page)
}

// CancelMyReservation cancels an open reservation
// POST /api/v1/reservations/:id/cancel
func (ctrl *ReservationController) CancelMyReservation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	reservationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := ctrl.reservationService.CancelMyReservation(c.Request.Context(), userID, reservationID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

// ListSellerReservations returns reservations at the caller's shops
// GET /api/v1/seller/reservations?status=
func (ctrl *ReservationController) ListSellerReservations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var status *model.ReservationStatus
	if raw := c.Query("status"); raw != "" {
		s := model.ReservationStatus(raw)
		if !s.Valid() {
			errors.Respond(c, service.ErrInvalidReservationStatus)
			return
		}
		status = &s
	}

	reservations, err := ctrl.reservationService.ListRetailerReservations(userID, status)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// UpdateReservationStatus moves a reservation along its lifecycle
// PUT /api/v1/seller/reservations/:id/status
func (ctrl *ReservationController) UpdateReservationStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	reservationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateReservationStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, err := ctrl.reservationService.UpdateReservationStatus(c.Request.Context(), userID, reservationID, req.Status, req.Note)
	if err != nil {
		log.Warn("Reservation status update failed", map[string]interface{}{
			"user_id":        userID,
			"reservation_id": reservationID,
			"status":         req.Status,
			"error":          err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Reservation status updated", map[string]interface{}{
		"reservation_id": reservationID,
		"status":         reservation.Status,
	})
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}
