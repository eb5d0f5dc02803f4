package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
	gatewayKeyID string // public checkout key handed to clients for online orders
}

func NewOrderController(orderService service.OrderService, gatewayKeyID string) *OrderController {
	return &OrderController{
		orderService: orderService,
		gatewayKeyID: gatewayKeyID,
	}
}

type OrderItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest checks out the listed items, or the cart when items is empty
type CreateOrderRequest struct {
	Items         []OrderItemRequest  `json:"items" binding:"omitempty,dive"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"required,oneof=online cash_on_pickup"`
	AddressID     *uint               `json:"address_id"`
	CouponCode    string              `json:"coupon_code" binding:"max=50"`
	Notes         string              `json:"notes" binding:"max=1000"`
}

type ConfirmPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	PaymentID      string `json:"razorpay_payment_id" binding:"required"`
	Signature      string `json:"razorpay_signature" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
	Note   string            `json:"note" binding:"max=1000"`
}

// CreateOrder places an order
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]service.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	order, err := ctrl.orderService.CreateOrder(c.Request.Context(), userID, service.CreateOrderInput{
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		AddressID:     req.AddressID,
		CouponCode:    req.CouponCode,
		Notes:         req.Notes,
	})
	if err != nil {
		log.Warn("Order creation failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Order created", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
	})

	resp := gin.H{"order": order}
	if order.PaymentMethod == model.PaymentMethodOnline {
		resp["payment"] = gin.H{
			"gateway_order_id": order.GatewayOrderID,
			"key_id":           ctrl.gatewayKeyID,
			"amount":           order.TotalAmount,
			"currency":         order.Currency,
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMyOrders returns the caller's orders, newest first
// GET /api/v1/orders?page=&limit=
func (ctrl *OrderController) ListMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page := pageFromQuery(c)

	orders, total, err := ctrl.orderService.ListMyOrders(userID, page)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "orders", orders, total, page)
}

// GetMyOrder returns one of the caller's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetMyOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetMyOrder(userID, orderID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelMyOrder cancels a pending order and restores its stock
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelMyOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.CancelMyOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		log.Warn("Order cancellation failed", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"error":    err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Order canceled by customer", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ConfirmPayment verifies the gateway callback signature and marks the order paid
// POST /api/v1/payments/confirm
func (ctrl *OrderController) ConfirmPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.ConfirmPayment(c.Request.Context(), req.GatewayOrderID, req.PaymentID, req.Signature)
	if err != nil {
		log.Warn("Payment confirmation failed", map[string]interface{}{
			"gateway_order_id": req.GatewayOrderID,
			"error":            err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Payment confirmed", map[string]interface{}{
		"order_id":   order.ID,
		"payment_id": req.PaymentID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed",
		"order":   order,
	})
}

// ListSellerOrders returns orders containing the caller's shops' items
// GET /api/v1/seller/orders?status=
func (ctrl *OrderController) ListSellerOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := model.OrderStatus(raw)
		if !s.Valid() {
			errors.Respond(c, service.ErrInvalidOrderStatus)
			return
		}
		status = &s
	}

	orders, err := ctrl.orderService.ListRetailerOrders(userID, status)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus moves an order along its lifecycle
// PUT /api/v1/seller/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(c.Request.Context(), userID, orderID, req.Status, req.Note)
	if err != nil {
		log.Warn("Order status update failed", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"status":   req.Status,
			"error":    err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
