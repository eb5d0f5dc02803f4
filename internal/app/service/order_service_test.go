package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/payment/razorpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testKeySecret = "rzp_test_secret"

var orderNumberPattern = regexp.MustCompile(`^LL-\d{8}-\d{5}$`)

type fakeGateway struct {
	requests []razorpay.CreateOrderRequest
	err      error
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_test_%d", len(f.requests)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) error {
	return razorpay.VerifySignature(testKeySecret, orderID, paymentID, signature)
}

type orderTestEnv struct {
	service   OrderService
	db        *gorm.DB
	gateway   *fakeGateway
	publisher *recordingPublisher
	customer  *model.User
	ownerA    *model.User
	ownerB    *model.User
	shopA     *model.Shop
	shopB     *model.Shop
	productA  *model.Product // 100 with 10% off and 5% tax, 10 in stock
	productB  *model.Product // 50, 5 in stock
}

func setupOrderServiceTest(t *testing.T) *orderTestEnv {
	testDB := setupTestDB(t)
	notifications, _ := newTestNotifications(testDB)
	env := &orderTestEnv{
		db:        testDB,
		gateway:   &fakeGateway{},
		publisher: &recordingPublisher{},
	}
	env.service = NewOrderService(OrderServiceDeps{
		Orders:        repository.NewOrderRepository(testDB),
		Products:      repository.NewProductRepository(testDB),
		Shops:         repository.NewShopRepository(testDB),
		Cart:          repository.NewCartRepository(testDB),
		Addresses:     repository.NewAddressRepository(testDB),
		Coupons:       repository.NewCouponRepository(testDB),
		Notifications: notifications,
		Publisher:     env.publisher,
		Gateway:       env.gateway,
		Currency:      "INR",
	})

	env.customer = createTestUser(t, testDB, "customer@example.com", model.RoleCustomer)
	env.ownerA = createTestUser(t, testDB, "owner-a@example.com", model.RoleRetailer)
	env.ownerB = createTestUser(t, testDB, "owner-b@example.com", model.RoleRetailer)
	env.shopA = createTestShop(t, testDB, env.ownerA.ID, "Shop A", 12.97, 77.59, true)
	env.shopB = createTestShop(t, testDB, env.ownerB.ID, "Shop B", 12.98, 77.60, true)

	env.productA = createTestProduct(t, testDB, env.shopA.ID, "Ghee", 100, 10)
	require.NoError(t, testDB.Model(env.productA).Updates(map[string]interface{}{
		"discount_percentage": 10,
		"tax":                 5,
	}).Error)
	env.productB = createTestProduct(t, testDB, env.shopB.ID, "Bread", 50, 5)
	return env
}

func (env *orderTestEnv) stock(t *testing.T, productID uint) int {
	var product model.Product
	require.NoError(t, env.db.First(&product, productID).Error)
	return product.AvailableQuantity
}

func (env *orderTestEnv) countOrders(t *testing.T) int64 {
	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	return count
}

func (env *orderTestEnv) twoShopOrder(t *testing.T) *model.Order {
	order, err := env.service.CreateOrder(context.Background(), env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		Items: []OrderItemInput{
			{ProductID: env.productA.ID, Quantity: 2},
			{ProductID: env.productB.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	env := setupOrderServiceTest(t)

	order := env.twoShopOrder(t)
	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 230.0, order.Subtotal)
	assert.Equal(t, 9.0, order.TaxAmount)
	assert.Equal(t, 239.0, order.TotalAmount)
	assert.Empty(t, order.GatewayOrderID)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 90.0, order.Items[0].UnitPrice)
	assert.Equal(t, 189.0, order.Items[0].Subtotal)
	assert.Equal(t, "Shop A", order.Items[0].ShopName)
	assert.Equal(t, "Ghee", order.Items[0].ProductName)

	require.Len(t, order.StatusUpdates, 1)
	assert.Equal(t, model.OrderStatusPending, order.StatusUpdates[0].Status)
	assert.Equal(t, "Order placed", order.StatusUpdates[0].Note)

	assert.Equal(t, 8, env.stock(t, env.productA.ID))
	assert.Equal(t, 4, env.stock(t, env.productB.ID))
	assert.Equal(t, int64(1), countNotifications(t, env.db, env.ownerA.ID, model.NotificationNewOrder))
	assert.Equal(t, int64(1), countNotifications(t, env.db, env.ownerB.ID, model.NotificationNewOrder))
	assert.Contains(t, env.publisher.keys(), events.OrderCreated)
}

func TestOrderService_CreateOrder_SnapshotSurvivesEdits(t *testing.T) {
	env := setupOrderServiceTest(t)
	order := env.twoShopOrder(t)

	require.NoError(t, env.db.Model(env.productA).Updates(map[string]interface{}{
		"name":       "Renamed",
		"base_price": 999,
	}).Error)

	stored, err := env.service.GetMyOrder(env.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ghee", stored.Items[0].ProductName)
	assert.Equal(t, 90.0, stored.Items[0].UnitPrice)
}

func TestOrderService_CreateOrder_Failures(t *testing.T) {
	env := setupOrderServiceTest(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    CreateOrderInput
		wantErr  error
		wantKind apperrors.Kind
	}{
		{
			name:     "insufficient stock",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup, Items: []OrderItemInput{{ProductID: env.productA.ID, Quantity: 11}}},
			wantErr:  ErrOutOfStock,
			wantKind: apperrors.KindConflict,
		},
		{
			name:     "repeated lines are summed before the stock check",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup, Items: []OrderItemInput{{ProductID: env.productB.ID, Quantity: 3}, {ProductID: env.productB.ID, Quantity: 3}}},
			wantErr:  ErrOutOfStock,
			wantKind: apperrors.KindConflict,
		},
		{
			name:     "empty cart",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup},
			wantErr:  ErrEmptyOrder,
			wantKind: apperrors.KindInvalidArgument,
		},
		{
			name:     "unknown payment method",
			input:    CreateOrderInput{PaymentMethod: "barter", Items: []OrderItemInput{{ProductID: env.productA.ID, Quantity: 1}}},
			wantErr:  ErrInvalidPaymentMethod,
			wantKind: apperrors.KindInvalidArgument,
		},
		{
			name:     "zero quantity",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup, Items: []OrderItemInput{{ProductID: env.productA.ID, Quantity: 0}}},
			wantErr:  ErrInvalidQuantity,
			wantKind: apperrors.KindInvalidArgument,
		},
		{
			name:     "unknown product",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup, Items: []OrderItemInput{{ProductID: 9999, Quantity: 1}}},
			wantErr:  ErrProductNotFound,
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "unknown coupon",
			input:    CreateOrderInput{PaymentMethod: model.PaymentMethodCashOnPickup, CouponCode: "NOPE", Items: []OrderItemInput{{ProductID: env.productA.ID, Quantity: 1}}},
			wantErr:  ErrCouponInvalid,
			wantKind: apperrors.KindInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.CreateOrder(ctx, env.customer.ID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
		})
	}

	assert.Equal(t, int64(0), env.countOrders(t))
	assert.Equal(t, 10, env.stock(t, env.productA.ID))
	assert.Equal(t, 5, env.stock(t, env.productB.ID))
}

func TestOrderService_CreateOrder_UnverifiedShop(t *testing.T) {
	env := setupOrderServiceTest(t)
	pending := createTestShop(t, env.db, env.ownerA.ID, "Pending", 12.97, 77.59, false)
	product := createTestProduct(t, env.db, pending.ID, "Tea", 10, 10)

	_, err := env.service.CreateOrder(context.Background(), env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		Items:         []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrShopNotAvailable)
}

func TestOrderService_CreateOrder_Variants(t *testing.T) {
	env := setupOrderServiceTest(t)
	product := createTestProduct(t, env.db, env.shopA.ID, "Saree", 2000, 0)
	require.NoError(t, env.db.Model(product).Update("has_variants", true).Error)
	variant := model.ProductVariant{
		ProductID:  product.ID,
		Attributes: datatypes.NewJSONType(map[string]string{"color": "red"}),
		Price:      2500,
		Quantity:   2,
		SKU:        "SAREE-RED",
	}
	require.NoError(t, env.db.Create(&variant).Error)
	ctx := context.Background()

	_, err := env.service.CreateOrder(ctx, env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		Items:         []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrVariantRequired)

	order, err := env.service.CreateOrder(ctx, env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		Items:         []OrderItemInput{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, order.Items[0].UnitPrice)
	assert.Equal(t, "SAREE-RED", order.Items[0].SKU)
	assert.Equal(t, "red", order.Items[0].VariantAttributes.Data()["color"])

	var stored model.ProductVariant
	require.NoError(t, env.db.First(&stored, variant.ID).Error)
	assert.Equal(t, 0, stored.Quantity)
}

func TestOrderService_CreateOrder_FromCart(t *testing.T) {
	env := setupOrderServiceTest(t)
	require.NoError(t, env.db.Create(&model.CartItem{UserID: env.customer.ID, ProductID: env.productB.ID, Quantity: 2}).Error)

	order, err := env.service.CreateOrder(context.Background(), env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.TotalAmount)

	var remaining int64
	require.NoError(t, env.db.Model(&model.CartItem{}).Where("user_id = ?", env.customer.ID).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)
}

func TestOrderService_CreateOrder_CouponAndAddress(t *testing.T) {
	env := setupOrderServiceTest(t)
	coupon := &model.Coupon{Code: "FLAT20", DiscountType: model.DiscountFlat, Value: 20, MinOrderAmount: 100, UsageLimit: 1, IsActive: true}
	require.NoError(t, env.db.Create(coupon).Error)
	address := &model.Address{UserID: env.customer.ID, Recipient: "Asha", Phone: "999", Line1: "12 MG Road", City: "Pune"}
	require.NoError(t, env.db.Create(address).Error)
	ctx := context.Background()

	order, err := env.service.CreateOrder(ctx, env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		CouponCode:    "flat20",
		AddressID:     &address.ID,
		Items:         []OrderItemInput{{ProductID: env.productA.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "FLAT20", order.CouponCode)
	assert.Equal(t, 20.0, order.DiscountAmount)
	assert.Equal(t, 169.0, order.TotalAmount)
	require.NotNil(t, order.ShippingAddress.Data())
	assert.Equal(t, "12 MG Road", order.ShippingAddress.Data().Line1)

	// usage limit reached
	_, err = env.service.CreateOrder(ctx, env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		CouponCode:    "FLAT20",
		Items:         []OrderItemInput{{ProductID: env.productA.ID, Quantity: 2}},
	})
	assert.ErrorIs(t, err, ErrCouponInvalid)

	other := createTestUser(t, env.db, "other@example.com", model.RoleCustomer)
	_, err = env.service.CreateOrder(ctx, other.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodCashOnPickup,
		AddressID:     &address.ID,
		Items:         []OrderItemInput{{ProductID: env.productA.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestOrderService_OnlinePayment(t *testing.T) {
	env := setupOrderServiceTest(t)
	ctx := context.Background()

	order, err := env.service.CreateOrder(ctx, env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodOnline,
		Items:         []OrderItemInput{{ProductID: env.productA.ID, Quantity: 2}, {ProductID: env.productB.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, env.gateway.requests, 1)
	assert.Equal(t, int64(23900), env.gateway.requests[0].Amount)
	assert.Equal(t, "INR", env.gateway.requests[0].Currency)
	assert.Equal(t, order.OrderNumber, env.gateway.requests[0].Receipt)
	assert.Equal(t, "order_test_1", order.GatewayOrderID)

	t.Run("bad signature changes nothing", func(t *testing.T) {
		_, err := env.service.ConfirmPayment(ctx, order.GatewayOrderID, "pay_1", "deadbeef")
		assert.ErrorIs(t, err, ErrPaymentVerification)
		assert.Equal(t, apperrors.KindPaymentVerificationFailed, apperrors.KindOf(err))

		stored, err := env.service.GetMyOrder(env.customer.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, stored.Status)
		assert.Len(t, stored.StatusUpdates, 1)
	})

	t.Run("unknown gateway order", func(t *testing.T) {
		_, err := env.service.ConfirmPayment(ctx, "order_missing", "pay_1", razorpay.Signature(testKeySecret, "order_missing", "pay_1"))
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	signature := razorpay.Signature(testKeySecret, order.GatewayOrderID, "pay_1")
	paid, err := env.service.ConfirmPayment(ctx, order.GatewayOrderID, "pay_1", signature)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, paid.Status)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "pay_1", paid.PaymentID)
	assert.NotNil(t, paid.PaidAt)
	require.Len(t, paid.StatusUpdates, 2)
	assert.Equal(t, "Payment received", paid.StatusUpdates[1].Note)
	assert.Contains(t, env.publisher.keys(), events.OrderPaid)

	t.Run("replay is idempotent", func(t *testing.T) {
		again, err := env.service.ConfirmPayment(ctx, order.GatewayOrderID, "pay_1", signature)
		require.NoError(t, err)
		assert.Len(t, again.StatusUpdates, 2)
	})

	t.Run("different payment for a paid order", func(t *testing.T) {
		_, err := env.service.ConfirmPayment(ctx, order.GatewayOrderID, "pay_2", razorpay.Signature(testKeySecret, order.GatewayOrderID, "pay_2"))
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestOrderService_OnlinePayment_GatewayDown(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.gateway.err = errors.New("connection refused")

	_, err := env.service.CreateOrder(context.Background(), env.customer.ID, CreateOrderInput{
		PaymentMethod: model.PaymentMethodOnline,
		Items:         []OrderItemInput{{ProductID: env.productA.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrPaymentGatewayDown)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
	assert.Equal(t, int64(0), env.countOrders(t))
	assert.Equal(t, 10, env.stock(t, env.productA.ID))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	env := setupOrderServiceTest(t)
	ctx := context.Background()
	order := env.twoShopOrder(t)
	stranger := createTestUser(t, env.db, "stranger@example.com", model.RoleRetailer)

	t.Run("unknown status", func(t *testing.T) {
		_, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, order.ID, "shipped", "")
		assert.ErrorIs(t, err, ErrInvalidOrderStatus)
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, 9999, model.OrderStatusProcessing, "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("not an owner of any line item", func(t *testing.T) {
		_, err := env.service.UpdateOrderStatus(ctx, stranger.ID, order.ID, model.OrderStatusProcessing, "")
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("illegal jump", func(t *testing.T) {
		_, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, order.ID, model.OrderStatusCompleted, "")
		assert.ErrorIs(t, err, ErrIllegalOrderTransition)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	updated, err := env.service.UpdateOrderStatus(ctx, env.ownerB.ID, order.ID, model.OrderStatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)
	require.Len(t, updated.StatusUpdates, 2)
	assert.Equal(t, env.ownerB.ID, *updated.StatusUpdates[1].UpdatedBy)
	assert.Equal(t, int64(1), countNotifications(t, env.db, env.customer.ID, model.NotificationOrderStatus))

	t.Run("same status with a note appends history only", func(t *testing.T) {
		noted, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, order.ID, model.OrderStatusProcessing, "packing now")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusProcessing, noted.Status)
		require.Len(t, noted.StatusUpdates, 3)
		assert.Equal(t, "packing now", noted.StatusUpdates[2].Note)
	})

	canceled, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, order.ID, model.OrderStatusCanceled, "out of ghee")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, canceled.Status)
	assert.Equal(t, 10, env.stock(t, env.productA.ID))
	assert.Equal(t, 5, env.stock(t, env.productB.ID))

	t.Run("terminal", func(t *testing.T) {
		_, err := env.service.UpdateOrderStatus(ctx, env.ownerA.ID, order.ID, model.OrderStatusProcessing, "")
		assert.ErrorIs(t, err, ErrIllegalOrderTransition)
	})
}

func TestOrderService_UpdateOrderStatus_RefundPending(t *testing.T) {
	env := setupOrderServiceTest(t)
	order := env.twoShopOrder(t)
	require.Equal(t, 8, env.stock(t, env.productA.ID))

	refunded, err := env.service.UpdateOrderStatus(context.Background(), env.ownerA.ID, order.ID, model.OrderStatusRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, refunded.Status)
	assert.Equal(t, model.PaymentStatusPending, refunded.PaymentStatus)
	assert.Equal(t, 10, env.stock(t, env.productA.ID))
	assert.Equal(t, 5, env.stock(t, env.productB.ID))

	_, err = env.service.UpdateOrderStatus(context.Background(), env.ownerA.ID, order.ID, model.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, ErrIllegalOrderTransition)
}

func TestOrderService_ListRetailerOrders(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.twoShopOrder(t)

	orders, err := env.service.ListRetailerOrders(env.ownerA.ID, nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, env.shopA.ID, orders[0].Items[0].ShopID)
	assert.Equal(t, 180.0, orders[0].Subtotal)
	assert.Equal(t, 189.0, orders[0].TotalAmount)

	orders, err = env.service.ListRetailerOrders(env.ownerB.ID, nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 50.0, orders[0].Subtotal)

	completed := model.OrderStatusCompleted
	orders, err = env.service.ListRetailerOrders(env.ownerA.ID, &completed)
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, err = env.service.ListRetailerOrders(env.customer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_CustomerAccess(t *testing.T) {
	env := setupOrderServiceTest(t)
	ctx := context.Background()
	order := env.twoShopOrder(t)
	other := createTestUser(t, env.db, "other@example.com", model.RoleCustomer)

	_, err := env.service.GetMyOrder(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = env.service.CancelMyOrder(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	orders, total, err := env.service.ListMyOrders(env.customer.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, orders, 1)

	canceled, err := env.service.CancelMyOrder(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, canceled.Status)
	assert.Equal(t, 10, env.stock(t, env.productA.ID))

	_, err = env.service.CancelMyOrder(ctx, env.customer.ID, order.ID)
	assert.ErrorIs(t, err, ErrIllegalOrderTransition)
}
