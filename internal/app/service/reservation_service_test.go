package service

import (
	"context"
	"testing"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type reservationTestEnv struct {
	service   ReservationService
	db        *gorm.DB
	publisher *recordingPublisher
	customer  *model.User
	owner     *model.User
	shop      *model.Shop
	product   *model.Product
}

func setupReservationServiceTest(t *testing.T) *reservationTestEnv {
	testDB := setupTestDB(t)
	notifications, _ := newTestNotifications(testDB)
	env := &reservationTestEnv{
		db:        testDB,
		publisher: &recordingPublisher{},
	}
	env.service = NewReservationService(
		repository.NewReservationRepository(testDB),
		repository.NewProductRepository(testDB),
		repository.NewShopRepository(testDB),
		notifications,
		env.publisher,
	)
	env.customer = createTestUser(t, testDB, "customer@example.com", model.RoleCustomer)
	env.owner = createTestUser(t, testDB, "owner@example.com", model.RoleRetailer)
	env.shop = createTestShop(t, testDB, env.owner.ID, "Kirana", 19.07, 72.87, true)
	env.product = createTestProduct(t, testDB, env.shop.ID, "Rice 5kg", 400, 3)
	return env
}

func tomorrow() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

func (env *reservationTestEnv) input(quantity int) CreateReservationInput {
	return CreateReservationInput{
		ShopID:     env.shop.ID,
		Items:      []ReservationItemInput{{ProductID: env.product.ID, Quantity: quantity}},
		PickupDate: tomorrow(),
		TimeSlot:   model.TimeSlot{Start: "10:00", End: "12:00"},
	}
}

func (env *reservationTestEnv) reserve(t *testing.T) *model.Reservation {
	reservation, err := env.service.CreateReservation(context.Background(), env.customer.ID, env.input(2))
	require.NoError(t, err)
	return reservation
}

func TestReservationService_CreateReservation(t *testing.T) {
	env := setupReservationServiceTest(t)

	reservation := env.reserve(t)
	assert.Regexp(t, `^RS-\d{8}-\d{5}$`, reservation.ReservationNumber)
	assert.Equal(t, model.ReservationPending, reservation.Status)
	assert.Equal(t, "Kirana", reservation.ShopName)
	assert.Equal(t, 800.0, reservation.TotalAmount)
	assert.True(t, reservation.ExpiryDate.Equal(tomorrow().Add(24*time.Hour)))
	assert.Equal(t, "10:00", reservation.PickupTimeSlot.Data().Start)
	require.Len(t, reservation.StatusUpdates, 1)
	assert.Equal(t, "Reservation placed", reservation.StatusUpdates[0].Note)

	// reservations hold no stock
	var product model.Product
	require.NoError(t, env.db.First(&product, env.product.ID).Error)
	assert.Equal(t, 3, product.AvailableQuantity)

	assert.Equal(t, int64(1), countNotifications(t, env.db, env.owner.ID, model.NotificationNewReservation))
	assert.Contains(t, env.publisher.keys(), events.ReservationCreated)
}

func TestReservationService_CreateReservation_ExplicitExpiry(t *testing.T) {
	env := setupReservationServiceTest(t)
	input := env.input(1)
	expiry := input.PickupDate.Add(6 * time.Hour)
	input.ExpiryDate = &expiry

	reservation, err := env.service.CreateReservation(context.Background(), env.customer.ID, input)
	require.NoError(t, err)
	assert.True(t, reservation.ExpiryDate.Equal(expiry))
}

func TestReservationService_CreateReservation_Variants(t *testing.T) {
	env := setupReservationServiceTest(t)
	require.NoError(t, env.db.Model(env.product).Update("has_variants", true).Error)
	variant := model.ProductVariant{
		ProductID:  env.product.ID,
		Attributes: datatypes.NewJSONType(map[string]string{"pack": "10kg"}),
		Price:      750,
		Quantity:   4,
	}
	require.NoError(t, env.db.Create(&variant).Error)
	ctx := context.Background()

	// no silent fallback to the base price
	_, err := env.service.CreateReservation(ctx, env.customer.ID, env.input(1))
	assert.ErrorIs(t, err, ErrVariantRequired)
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	input := env.input(2)
	input.Items[0].VariantID = &variant.ID
	reservation, err := env.service.CreateReservation(ctx, env.customer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 750.0, reservation.Items[0].UnitPrice)
	assert.Equal(t, 1500.0, reservation.TotalAmount)
	assert.Equal(t, "10kg", reservation.Items[0].VariantAttributes.Data()["pack"])

	var count int64
	require.NoError(t, env.db.Model(&model.Reservation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReservationService_CreateReservation_Validation(t *testing.T) {
	env := setupReservationServiceTest(t)
	otherOwner := createTestUser(t, env.db, "other-owner@example.com", model.RoleRetailer)
	otherShop := createTestShop(t, env.db, otherOwner.ID, "Elsewhere", 19.08, 72.88, true)
	foreign := createTestProduct(t, env.db, otherShop.ID, "Dal", 120, 10)
	unverified := createTestShop(t, env.db, otherOwner.ID, "Pending", 19.08, 72.88, false)

	yesterday := tomorrow().Add(-48 * time.Hour)
	early := tomorrow().Add(-time.Hour)

	tests := []struct {
		name     string
		mutate   func(in *CreateReservationInput)
		wantErr  error
		wantKind apperrors.Kind
	}{
		{"no items", func(in *CreateReservationInput) { in.Items = nil }, nil, apperrors.KindInvalidArgument},
		{"missing pickup date", func(in *CreateReservationInput) { in.PickupDate = time.Time{} }, ErrInvalidPickup, apperrors.KindInvalidArgument},
		{"pickup in the past", func(in *CreateReservationInput) { in.PickupDate = yesterday }, ErrInvalidPickup, apperrors.KindInvalidArgument},
		{"slot ends before it starts", func(in *CreateReservationInput) { in.TimeSlot = model.TimeSlot{Start: "14:00", End: "09:00"} }, ErrInvalidPickup, apperrors.KindInvalidArgument},
		{"malformed slot", func(in *CreateReservationInput) { in.TimeSlot = model.TimeSlot{Start: "morning", End: "noon"} }, ErrInvalidPickup, apperrors.KindInvalidArgument},
		{"expiry before pickup", func(in *CreateReservationInput) { in.ExpiryDate = &early }, ErrInvalidPickup, apperrors.KindInvalidArgument},
		{"zero quantity", func(in *CreateReservationInput) { in.Items[0].Quantity = 0 }, ErrInvalidQuantity, apperrors.KindInvalidArgument},
		{"unknown shop", func(in *CreateReservationInput) { in.ShopID = 9999 }, ErrShopNotFound, apperrors.KindNotFound},
		{"unverified shop", func(in *CreateReservationInput) { in.ShopID = unverified.ID }, ErrShopNotFound, apperrors.KindNotFound},
		{"unknown product", func(in *CreateReservationInput) { in.Items[0].ProductID = 9999 }, ErrProductNotFound, apperrors.KindNotFound},
		{"product from another shop", func(in *CreateReservationInput) { in.Items[0].ProductID = foreign.ID }, nil, apperrors.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := env.input(1)
			tt.mutate(&input)
			_, err := env.service.CreateReservation(context.Background(), env.customer.ID, input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&model.Reservation{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReservationService_UpdateReservationStatus(t *testing.T) {
	env := setupReservationServiceTest(t)
	ctx := context.Background()
	reservation := env.reserve(t)

	t.Run("only the shop owner", func(t *testing.T) {
		_, err := env.service.UpdateReservationStatus(ctx, env.customer.ID, reservation.ID, model.ReservationConfirmed, "")
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, reservation.ID, "lost", "")
		assert.ErrorIs(t, err, ErrInvalidReservationStatus)
	})

	t.Run("cannot skip to completed", func(t *testing.T) {
		_, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, reservation.ID, model.ReservationCompleted, "")
		assert.ErrorIs(t, err, ErrIllegalReservationTransition)
	})

	for _, next := range []model.ReservationStatus{model.ReservationConfirmed, model.ReservationReady, model.ReservationCompleted} {
		updated, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, reservation.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	final, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, reservation.ID, model.ReservationCompleted, "collected by brother")
	require.NoError(t, err)
	require.Len(t, final.StatusUpdates, 5)
	assert.Equal(t, "collected by brother", final.StatusUpdates[4].Note)
	assert.Equal(t, int64(3), countNotifications(t, env.db, env.customer.ID, model.NotificationReservationStatus))

	_, err = env.service.UpdateReservationStatus(ctx, env.owner.ID, reservation.ID, model.ReservationCancelled, "")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestReservationService_CancelMyReservation(t *testing.T) {
	env := setupReservationServiceTest(t)
	ctx := context.Background()
	reservation := env.reserve(t)
	other := createTestUser(t, env.db, "other@example.com", model.RoleCustomer)

	_, err := env.service.CancelMyReservation(ctx, other.ID, reservation.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	canceled, err := env.service.CancelMyReservation(ctx, env.customer.ID, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, canceled.Status)

	_, err = env.service.CancelMyReservation(ctx, env.customer.ID, reservation.ID)
	assert.ErrorIs(t, err, ErrIllegalReservationTransition)

	ready := env.reserve(t)
	for _, next := range []model.ReservationStatus{model.ReservationConfirmed, model.ReservationReady} {
		_, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, ready.ID, next, "")
		require.NoError(t, err)
	}
	_, err = env.service.CancelMyReservation(ctx, env.customer.ID, ready.ID)
	assert.ErrorIs(t, err, ErrIllegalReservationTransition)
}

func TestReservationService_Listing(t *testing.T) {
	env := setupReservationServiceTest(t)
	env.reserve(t)
	env.reserve(t)

	mine, total, err := env.service.ListMyReservations(env.customer.ID, repository.Page{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 1)

	pending := model.ReservationPending
	forShop, err := env.service.ListRetailerReservations(env.owner.ID, &pending)
	require.NoError(t, err)
	assert.Len(t, forShop, 2)

	forShop, err = env.service.ListRetailerReservations(env.customer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, forShop)

	bogus := model.ReservationStatus("lost")
	_, err = env.service.ListRetailerReservations(env.owner.ID, &bogus)
	assert.ErrorIs(t, err, ErrInvalidReservationStatus)
}

func TestReservationService_ExpireOverdue(t *testing.T) {
	env := setupReservationServiceTest(t)
	ctx := context.Background()

	overdue := env.reserve(t)
	confirmedOverdue := env.reserve(t)
	current := env.reserve(t)
	completed := env.reserve(t)

	_, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, confirmedOverdue.ID, model.ReservationConfirmed, "")
	require.NoError(t, err)
	for _, next := range []model.ReservationStatus{model.ReservationConfirmed, model.ReservationReady, model.ReservationCompleted} {
		_, err := env.service.UpdateReservationStatus(ctx, env.owner.ID, completed.ID, next, "")
		require.NoError(t, err)
	}

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, env.db.Model(&model.Reservation{}).
		Where("id IN ?", []uint{overdue.ID, confirmedOverdue.ID, completed.ID}).
		Update("expiry_date", past).Error)

	count, err := env.service.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	statusOf := func(id uint) model.ReservationStatus {
		var r model.Reservation
		require.NoError(t, env.db.First(&r, id).Error)
		return r.Status
	}
	assert.Equal(t, model.ReservationExpired, statusOf(overdue.ID))
	assert.Equal(t, model.ReservationExpired, statusOf(confirmedOverdue.ID))
	assert.Equal(t, model.ReservationPending, statusOf(current.ID))
	assert.Equal(t, model.ReservationCompleted, statusOf(completed.ID))

	var entry model.ReservationStatusUpdate
	require.NoError(t, env.db.Where("reservation_id = ? AND status = ?", overdue.ID, model.ReservationExpired).First(&entry).Error)
	assert.Equal(t, "Pickup window passed", entry.Note)
	assert.Nil(t, entry.UpdatedBy)

	count, err = env.service.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
