package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/locallens/locallens-backend/pkg/payment/razorpay"
	"github.com/locallens/locallens-backend/pkg/util"
	"gorm.io/datatypes"
)

// PaymentGateway is the subset of the Razorpay client used by checkout
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) error
}

type OrderItemInput struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

// CreateOrderInput is a checkout request. An empty Items list checks out the cart.
type CreateOrderInput struct {
	Items         []OrderItemInput
	PaymentMethod model.PaymentMethod
	AddressID     *uint
	CouponCode    string
	Notes         string
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*model.Order, error)
	ConfirmPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID uint, status model.OrderStatus, note string) (*model.Order, error)
	ListRetailerOrders(ownerID uint, status *model.OrderStatus) ([]model.Order, error)
	ListMyOrders(userID uint, page repository.Page) ([]model.Order, int64, error)
	GetMyOrder(userID, orderID uint) (*model.Order, error)
	CancelMyOrder(ctx context.Context, userID, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	shopRepo      repository.ShopRepository
	cartRepo      repository.CartRepository
	addressRepo   repository.AddressRepository
	couponRepo    repository.CouponRepository
	notifications NotificationService
	publisher     events.Publisher
	gateway       PaymentGateway
	currency      string
	now           func() time.Time
}

type OrderServiceDeps struct {
	Orders        repository.OrderRepository
	Products      repository.ProductRepository
	Shops         repository.ShopRepository
	Cart          repository.CartRepository
	Addresses     repository.AddressRepository
	Coupons       repository.CouponRepository
	Notifications NotificationService
	Publisher     events.Publisher
	Gateway       PaymentGateway // nil disables online payment
	Currency      string
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	currency := deps.Currency
	if currency == "" {
		currency = "INR"
	}
	return &orderService{
		orderRepo:     deps.Orders,
		productRepo:   deps.Products,
		shopRepo:      deps.Shops,
		cartRepo:      deps.Cart,
		addressRepo:   deps.Addresses,
		couponRepo:    deps.Coupons,
		notifications: deps.Notifications,
		publisher:     deps.Publisher,
		gateway:       deps.Gateway,
		currency:      currency,
		now:           time.Now,
	}
}

type lineKey struct {
	productID uint
	variantID uint
}

// mergeLines folds repeated product and variant pairs into one line
func mergeLines(items []OrderItemInput) ([]OrderItemInput, error) {
	index := make(map[lineKey]int, len(items))
	merged := make([]OrderItemInput, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		key := lineKey{productID: item.ProductID}
		if item.VariantID != nil {
			key.variantID = *item.VariantID
		}
		if i, ok := index[key]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func (s *orderService) cartLines(userID uint) ([]OrderItemInput, error) {
	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	lines := make([]OrderItemInput, 0, len(cartItems))
	for _, item := range cartItems {
		lines = append(lines, OrderItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// buildItems snapshots products and shops into order items and collects the stock deltas
func (s *orderService) buildItems(lines []OrderItemInput) ([]model.OrderItem, []repository.StockDelta, map[uint]*model.Shop, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		return nil, nil, nil, storeError(err, nil)
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	shops := make(map[uint]*model.Shop)
	items := make([]model.OrderItem, 0, len(lines))
	deltas := make([]repository.StockDelta, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, nil, nil, ErrProductNotFound
		}
		if !product.IsActive || !product.IsAvailable {
			return nil, nil, nil, ErrProductUnavailable
		}

		shop, ok := shops[product.ShopID]
		if !ok {
			shop, err = s.shopRepo.FindByID(product.ShopID)
			if err != nil {
				return nil, nil, nil, storeError(err, ErrShopNotAvailable)
			}
			shops[shop.ID] = shop
		}
		if !shop.IsVerified || !shop.IsActive {
			return nil, nil, nil, ErrShopNotAvailable
		}

		unitPrice := product.FinalPrice()
		sku := product.SKU
		attrs := map[string]string{}
		switch {
		case line.VariantID != nil:
			variant := product.Variant(*line.VariantID)
			if variant == nil {
				return nil, nil, nil, ErrVariantNotFound
			}
			unitPrice = model.RoundMoney(variant.Price)
			if variant.SKU != "" {
				sku = variant.SKU
			}
			attrs = variant.Attributes.Data()
		case product.HasVariants:
			return nil, nil, nil, ErrVariantRequired
		}

		tax := model.RoundMoney(unitPrice * product.Tax / 100 * float64(line.Quantity))
		items = append(items, model.OrderItem{
			ProductID:         product.ID,
			VariantID:         line.VariantID,
			ShopID:            shop.ID,
			ShopName:          shop.Name,
			ProductName:       product.Name,
			ImageURL:          product.PrimaryImageURL(),
			SKU:               sku,
			VariantAttributes: datatypes.NewJSONType(attrs),
			UnitPrice:         unitPrice,
			TaxAmount:         tax,
			Quantity:          line.Quantity,
			Subtotal:          model.RoundMoney(unitPrice*float64(line.Quantity) + tax),
		})
		deltas = append(deltas, repository.StockDelta{
			ProductID: product.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}
	return items, deltas, shops, nil
}

func (s *orderService) applyCoupon(code string, amount float64) (string, float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", 0, nil
	}
	coupon, err := s.couponRepo.FindByCode(code)
	if err != nil {
		return "", 0, storeError(err, ErrCouponInvalid)
	}
	if !coupon.UsableAt(s.now()) {
		return "", 0, ErrCouponInvalid
	}
	discount := coupon.DiscountFor(amount)
	if discount <= 0 {
		return "", 0, ErrCouponInvalid
	}
	return coupon.Code, discount, nil
}

func (s *orderService) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*model.Order, error) {
	log := logger.WithContext(map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
	})
	log.Info("Creating order")

	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if input.PaymentMethod == model.PaymentMethodOnline && s.gateway == nil {
		return nil, ErrPaymentGatewayDown
	}

	fromCart := len(input.Items) == 0
	lines := input.Items
	if fromCart {
		var err error
		if lines, err = s.cartLines(userID); err != nil {
			return nil, err
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	lines, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	items, deltas, shops, err := s.buildItems(lines)
	if err != nil {
		return nil, err
	}

	var subtotal, tax float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
		tax += item.TaxAmount
	}
	subtotal = model.RoundMoney(subtotal)
	tax = model.RoundMoney(tax)

	couponCode, discount, err := s.applyCoupon(input.CouponCode, subtotal)
	if err != nil {
		return nil, err
	}

	var shipping *model.AddressSnapshot
	if input.AddressID != nil {
		address, err := s.addressRepo.FindByIDAndUserID(*input.AddressID, userID)
		if err != nil {
			return nil, storeError(err, ErrAddressNotFound)
		}
		shipping = address.Snapshot()
	}

	now := s.now()
	orderNumber, err := uniqueNumber(now, util.GenerateOrderNumber, s.orderRepo.ExistsByOrderNumber)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Currency:        s.currency,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		DiscountAmount:  discount,
		TotalAmount:     model.RoundMoney(subtotal + tax - discount),
		CouponCode:      couponCode,
		Notes:           input.Notes,
		ShippingAddress: datatypes.NewJSONType(shipping),
		Items:           items,
		StatusUpdates: []model.OrderStatusUpdate{{
			Status: model.OrderStatusPending,
			Note:   "Order placed",
		}},
	}

	if input.PaymentMethod == model.PaymentMethodOnline {
		gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
			Amount:   toPaise(order.TotalAmount),
			Currency: s.currency,
			Receipt:  orderNumber,
		})
		if err != nil {
			log.Error("Failed to create gateway order", err)
			return nil, apperrors.Wrap(ErrPaymentGatewayDown, err)
		}
		order.GatewayOrderID = gatewayOrder.ID
	}

	if err := s.orderRepo.Create(order, deltas); err != nil {
		return nil, storeError(err, nil)
	}

	if fromCart {
		if err := s.cartRepo.DeleteByUserID(userID); err != nil {
			log.Warn("Failed to clear cart after checkout", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	for _, shop := range shops {
		s.notify(&model.Notification{
			UserID:         shop.OwnerID,
			Type:           model.NotificationNewOrder,
			Title:          "New order",
			Message:        fmt.Sprintf("Order %s includes items from %s", order.OrderNumber, shop.Name),
			Link:           fmt.Sprintf("/seller/orders/%d", order.ID),
			RelatedOrderID: &order.ID,
		})
	}
	publishEvent(ctx, s.publisher, events.OrderCreated, map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"shop_ids":     order.ShopIDs(),
		"total_amount": order.TotalAmount,
	})

	log.Info("Order created successfully", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
	})
	return order, nil
}

func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *orderService) ConfirmPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) (*model.Order, error) {
	logger.Info("Confirming payment", map[string]interface{}{
		"gateway_order_id": gatewayOrderID,
	})

	order, err := s.orderRepo.FindByGatewayOrderID(gatewayOrderID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}
	if s.gateway == nil {
		return nil, ErrPaymentGatewayDown
	}
	if err := s.gateway.VerifySignature(gatewayOrderID, paymentID, signature); err != nil {
		logger.Warn("Payment signature mismatch", map[string]interface{}{
			"order_id":         order.ID,
			"gateway_order_id": gatewayOrderID,
		})
		return nil, ErrPaymentVerification
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		if order.PaymentID == paymentID {
			return order, nil
		}
		return nil, ErrIllegalOrderTransition
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrIllegalOrderTransition
	}

	paidAt := s.now()
	err = s.orderRepo.Transition(repository.OrderTransition{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		Fields: map[string]interface{}{
			"order_status":   model.OrderStatusProcessing,
			"payment_status": model.PaymentStatusPaid,
			"payment_id":     paymentID,
			"paid_at":        paidAt,
		},
		Entry: model.OrderStatusUpdate{
			Status: model.OrderStatusProcessing,
			Note:   "Payment received",
		},
	})
	if errors.Is(err, repository.ErrStaleState) {
		// a concurrent confirmation may have won with the same payment
		current, findErr := s.orderRepo.FindByID(order.ID)
		if findErr == nil && current.PaymentStatus == model.PaymentStatusPaid && current.PaymentID == paymentID {
			return current, nil
		}
		return nil, apperrors.Wrap(ErrIllegalOrderTransition, err)
	}
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}

	updated, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}

	s.notify(&model.Notification{
		UserID:         order.UserID,
		Type:           model.NotificationPaymentReceived,
		Title:          "Payment received",
		Message:        fmt.Sprintf("We received your payment for order %s", order.OrderNumber),
		Link:           fmt.Sprintf("/orders/%d", order.ID),
		RelatedOrderID: &order.ID,
	})
	publishEvent(ctx, s.publisher, events.OrderPaid, map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"payment_id":   paymentID,
		"total_amount": order.TotalAmount,
	})

	logger.Info("Payment confirmed", map[string]interface{}{
		"order_id": order.ID,
	})
	return updated, nil
}

func ownsAny(owned []uint, shopIDs []uint) bool {
	set := make(map[uint]struct{}, len(owned))
	for _, id := range owned {
		set[id] = struct{}{}
	}
	for _, id := range shopIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func restockFor(order *model.Order) []repository.StockDelta {
	deltas := make([]repository.StockDelta, 0, len(order.Items))
	for _, item := range order.Items {
		deltas = append(deltas, repository.StockDelta{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return deltas
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, actorID, orderID uint, status model.OrderStatus, note string) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"actor_id": actorID,
		"status":   status,
	})

	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}
	owned, err := s.shopRepo.OwnedShopIDs(actorID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if !ownsAny(owned, order.ShopIDs()) {
		logger.Warn("Order status update by non-owner", map[string]interface{}{
			"order_id": orderID,
			"actor_id": actorID,
		})
		return nil, ErrNotOwner
	}

	note = strings.TrimSpace(note)
	if status == order.Status {
		if note == "" {
			return order, nil
		}
		if err := s.orderRepo.AppendStatusUpdate(&model.OrderStatusUpdate{
			OrderID:   order.ID,
			Status:    status,
			Note:      note,
			UpdatedBy: &actorID,
		}); err != nil {
			return nil, storeError(err, nil)
		}
		return s.reload(order.ID)
	}

	return s.transition(ctx, order, status, note, &actorID)
}

// transition moves order to status with a history entry, restocking on cancel and on refund before processing
func (s *orderService) transition(ctx context.Context, order *model.Order, status model.OrderStatus, note string, actorID *uint) (*model.Order, error) {
	if !order.Status.CanTransitionTo(status) {
		return nil, ErrIllegalOrderTransition
	}
	if note == "" {
		note = fmt.Sprintf("Status changed to %s", status)
	}

	fields := map[string]interface{}{"order_status": status}
	if status == model.OrderStatusRefunded && order.PaymentStatus == model.PaymentStatusPaid {
		fields["payment_status"] = model.PaymentStatusRefunded
	}
	var restock []repository.StockDelta
	if status == model.OrderStatusCanceled ||
		(status == model.OrderStatusRefunded && order.Status == model.OrderStatusPending) {
		restock = restockFor(order)
	}

	err := s.orderRepo.Transition(repository.OrderTransition{
		OrderID: order.ID,
		From:    order.Status,
		Fields:  fields,
		Entry: model.OrderStatusUpdate{
			Status:    status,
			Note:      note,
			UpdatedBy: actorID,
		},
		Restock: restock,
	})
	if errors.Is(err, repository.ErrStaleState) {
		return nil, apperrors.Wrap(ErrIllegalOrderTransition, err)
	}
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}

	s.notify(&model.Notification{
		UserID:         order.UserID,
		Type:           model.NotificationOrderStatus,
		Title:          "Order updated",
		Message:        fmt.Sprintf("Order %s is now %s", order.OrderNumber, strings.ReplaceAll(string(status), "_", " ")),
		Link:           fmt.Sprintf("/orders/%d", order.ID),
		RelatedOrderID: &order.ID,
	})
	publishEvent(ctx, s.publisher, events.OrderStatusChanged, map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"from":         order.Status,
		"to":           status,
		"shop_ids":     order.ShopIDs(),
	})

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"from":     order.Status,
		"to":       status,
	})
	return s.reload(order.ID)
}

func (s *orderService) reload(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) notify(n *model.Notification) {
	if s.notifications != nil {
		s.notifications.Notify(n)
	}
}

func (s *orderService) ListRetailerOrders(ownerID uint, status *model.OrderStatus) ([]model.Order, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	owned, err := s.shopRepo.OwnedShopIDs(ownerID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	orders, err := s.orderRepo.FindByShopIDs(owned, status)
	if err != nil {
		return nil, storeError(err, nil)
	}

	for i := range orders {
		scopeToShops(&orders[i], owned)
	}
	return orders, nil
}

// scopeToShops drops line items of other shops and recomputes the amounts from what is left.
// The order-wide coupon is hidden since it cannot be attributed to one shop.
func scopeToShops(order *model.Order, shopIDs []uint) {
	set := make(map[uint]struct{}, len(shopIDs))
	for _, id := range shopIDs {
		set[id] = struct{}{}
	}

	kept := order.Items[:0]
	var subtotal, tax float64
	for _, item := range order.Items {
		if _, ok := set[item.ShopID]; !ok {
			continue
		}
		kept = append(kept, item)
		subtotal += item.UnitPrice * float64(item.Quantity)
		tax += item.TaxAmount
	}
	order.Items = kept
	order.Subtotal = model.RoundMoney(subtotal)
	order.TaxAmount = model.RoundMoney(tax)
	order.DiscountAmount = 0
	order.CouponCode = ""
	order.TotalAmount = model.RoundMoney(subtotal + tax)
}

func (s *orderService) ListMyOrders(userID uint, page repository.Page) ([]model.Order, int64, error) {
	orders, total, err := s.orderRepo.FindByUserID(userID, page)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return orders, total, nil
}

func (s *orderService) GetMyOrder(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, storeError(err, ErrOrderNotFound)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) CancelMyOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.GetMyOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrIllegalOrderTransition
	}
	return s.transition(ctx, order, model.OrderStatusCanceled, "Canceled by customer", &userID)
}
