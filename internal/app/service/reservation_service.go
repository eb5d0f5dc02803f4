package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/locallens/locallens-backend/pkg/util"
	"gorm.io/datatypes"
)

const (
	defaultReservationHold = 24 * time.Hour
	expiryBatchSize        = 100
	timeSlotLayout         = "15:04"
)

type ReservationItemInput struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

type CreateReservationInput struct {
	ShopID     uint
	Items      []ReservationItemInput
	PickupDate time.Time
	TimeSlot   model.TimeSlot
	ExpiryDate *time.Time // defaults to the pickup date plus one day
	Notes      string
}

type ReservationService interface {
	CreateReservation(ctx context.Context, userID uint, input CreateReservationInput) (*model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, actorID, reservationID uint, status model.ReservationStatus, note string) (*model.Reservation, error)
	CancelMyReservation(ctx context.Context, userID, reservationID uint) (*model.Reservation, error)
	ListMyReservations(userID uint, page repository.Page) ([]model.Reservation, int64, error)
	ListRetailerReservations(ownerID uint, status *model.ReservationStatus) ([]model.Reservation, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	productRepo     repository.ProductRepository
	shopRepo        repository.ShopRepository
	notifications   NotificationService
	publisher       events.Publisher
	now             func() time.Time
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	notifications NotificationService,
	publisher events.Publisher,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		productRepo:     productRepo,
		shopRepo:        shopRepo,
		notifications:   notifications,
		publisher:       publisher,
		now:             time.Now,
	}
}

func validTimeSlot(slot model.TimeSlot) bool {
	start, err := time.Parse(timeSlotLayout, slot.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse(timeSlotLayout, slot.End)
	if err != nil {
		return false
	}
	return start.Before(end)
}

func (s *reservationService) validate(input CreateReservationInput) error {
	if input.ShopID == 0 || len(input.Items) == 0 {
		return apperrors.InvalidArgument(apperrors.ValidationRequired, "Shop and at least one item are required")
	}
	if input.PickupDate.IsZero() || !validTimeSlot(input.TimeSlot) {
		return ErrInvalidPickup
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if input.PickupDate.UTC().Before(today) {
		return ErrInvalidPickup
	}
	if input.ExpiryDate != nil && input.ExpiryDate.Before(input.PickupDate) {
		return ErrInvalidPickup
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func (s *reservationService) CreateReservation(ctx context.Context, userID uint, input CreateReservationInput) (*model.Reservation, error) {
	logger.Info("Creating reservation", map[string]interface{}{
		"user_id": userID,
		"shop_id": input.ShopID,
	})

	if err := s.validate(input); err != nil {
		return nil, err
	}

	shop, err := s.shopRepo.FindByID(input.ShopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	if !shop.IsVerified || !shop.IsActive {
		return nil, ErrShopNotFound
	}

	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		return nil, storeError(err, nil)
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]model.ReservationItem, 0, len(input.Items))
	var total float64
	for _, in := range input.Items {
		product, ok := byID[in.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotFound
		}
		if product.ShopID != shop.ID {
			return nil, apperrors.InvalidArgument(apperrors.ValidationInvalidInput,
				fmt.Sprintf("Product %d does not belong to this shop", product.ID))
		}

		unitPrice := product.FinalPrice()
		attrs := map[string]string{}
		switch {
		case in.VariantID != nil:
			variant := product.Variant(*in.VariantID)
			if variant == nil {
				return nil, ErrVariantNotFound
			}
			unitPrice = model.RoundMoney(variant.Price)
			attrs = variant.Attributes.Data()
		case product.HasVariants:
			return nil, ErrVariantRequired
		}

		subtotal := model.RoundMoney(unitPrice * float64(in.Quantity))
		total += subtotal
		items = append(items, model.ReservationItem{
			ProductID:         product.ID,
			VariantID:         in.VariantID,
			ProductName:       product.Name,
			ImageURL:          product.PrimaryImageURL(),
			VariantAttributes: datatypes.NewJSONType(attrs),
			UnitPrice:         unitPrice,
			Quantity:          in.Quantity,
			Subtotal:          subtotal,
		})
	}

	expiry := input.PickupDate.Add(defaultReservationHold)
	if input.ExpiryDate != nil {
		expiry = *input.ExpiryDate
	}

	number, err := uniqueNumber(s.now(), util.GenerateReservationNumber, s.reservationRepo.ExistsByNumber)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		ReservationNumber: number,
		UserID:            userID,
		ShopID:            shop.ID,
		ShopName:          shop.Name,
		Status:            model.ReservationPending,
		PickupDate:        input.PickupDate,
		PickupTimeSlot:    datatypes.NewJSONType(input.TimeSlot),
		ExpiryDate:        expiry,
		TotalAmount:       model.RoundMoney(total),
		Notes:             input.Notes,
		Items:             items,
		StatusUpdates: []model.ReservationStatusUpdate{{
			Status: model.ReservationPending,
			Note:   "Reservation placed",
		}},
	}
	if err := s.reservationRepo.Create(reservation); err != nil {
		return nil, storeError(err, nil)
	}

	s.notify(&model.Notification{
		UserID:               shop.OwnerID,
		Type:                 model.NotificationNewReservation,
		Title:                "New reservation",
		Message:              fmt.Sprintf("Reservation %s for pickup on %s", number, input.PickupDate.Format("2006-01-02")),
		Link:                 fmt.Sprintf("/seller/reservations/%d", reservation.ID),
		RelatedReservationID: &reservation.ID,
	})
	publishEvent(ctx, s.publisher, events.ReservationCreated, map[string]interface{}{
		"reservation_id":     reservation.ID,
		"reservation_number": number,
		"shop_id":            shop.ID,
		"user_id":            userID,
	})

	logger.Info("Reservation created successfully", map[string]interface{}{
		"reservation_id": reservation.ID,
		"number":         number,
	})
	return reservation, nil
}

func (s *reservationService) UpdateReservationStatus(ctx context.Context, actorID, reservationID uint, status model.ReservationStatus, note string) (*model.Reservation, error) {
	logger.Info("Updating reservation status", map[string]interface{}{
		"reservation_id": reservationID,
		"actor_id":       actorID,
		"status":         status,
	})

	if !status.Valid() {
		return nil, ErrInvalidReservationStatus
	}
	reservation, err := s.reservationRepo.FindByID(reservationID)
	if err != nil {
		return nil, storeError(err, ErrReservationNotFound)
	}
	shop, err := s.shopRepo.FindByID(reservation.ShopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	if shop.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	note = strings.TrimSpace(note)
	if status == reservation.Status {
		if note == "" {
			return reservation, nil
		}
		if err := s.reservationRepo.AppendStatusUpdate(&model.ReservationStatusUpdate{
			ReservationID: reservation.ID,
			Status:        status,
			Note:          note,
			UpdatedBy:     &actorID,
		}); err != nil {
			return nil, storeError(err, nil)
		}
		return s.reload(reservation.ID)
	}

	if err := s.transition(ctx, reservation, status, note, &actorID); err != nil {
		return nil, err
	}
	return s.reload(reservation.ID)
}

func (s *reservationService) transition(ctx context.Context, reservation *model.Reservation, status model.ReservationStatus, note string, actorID *uint) error {
	if !reservation.Status.CanTransitionTo(status) {
		return ErrIllegalReservationTransition
	}
	if note == "" {
		note = fmt.Sprintf("Status changed to %s", status)
	}

	err := s.reservationRepo.Transition(repository.ReservationTransition{
		ReservationID: reservation.ID,
		From:          reservation.Status,
		To:            status,
		Entry: model.ReservationStatusUpdate{
			Status:    status,
			Note:      note,
			UpdatedBy: actorID,
		},
	})
	if errors.Is(err, repository.ErrStaleState) {
		return apperrors.Wrap(ErrIllegalReservationTransition, err)
	}
	if err != nil {
		return storeError(err, ErrReservationNotFound)
	}

	s.notify(&model.Notification{
		UserID:               reservation.UserID,
		Type:                 model.NotificationReservationStatus,
		Title:                "Reservation updated",
		Message:              fmt.Sprintf("Reservation %s is now %s", reservation.ReservationNumber, status),
		Link:                 fmt.Sprintf("/reservations/%d", reservation.ID),
		RelatedReservationID: &reservation.ID,
	})
	publishEvent(ctx, s.publisher, events.ReservationStatusChanged, map[string]interface{}{
		"reservation_id":     reservation.ID,
		"reservation_number": reservation.ReservationNumber,
		"shop_id":            reservation.ShopID,
		"from":               reservation.Status,
		"to":                 status,
	})
	return nil
}

func (s *reservationService) reload(id uint) (*model.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(id)
	if err != nil {
		return nil, storeError(err, ErrReservationNotFound)
	}
	return reservation, nil
}

func (s *reservationService) notify(n *model.Notification) {
	if s.notifications != nil {
		s.notifications.Notify(n)
	}
}

func (s *reservationService) CancelMyReservation(ctx context.Context, userID, reservationID uint) (*model.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(reservationID)
	if err != nil {
		return nil, storeError(err, ErrReservationNotFound)
	}
	if reservation.UserID != userID {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != model.ReservationPending && reservation.Status != model.ReservationConfirmed {
		return nil, ErrIllegalReservationTransition
	}
	if err := s.transition(ctx, reservation, model.ReservationCancelled, "Cancelled by customer", &userID); err != nil {
		return nil, err
	}
	return s.reload(reservation.ID)
}

func (s *reservationService) ListMyReservations(userID uint, page repository.Page) ([]model.Reservation, int64, error) {
	reservations, total, err := s.reservationRepo.FindByUserID(userID, page)
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return reservations, total, nil
}

func (s *reservationService) ListRetailerReservations(ownerID uint, status *model.ReservationStatus) ([]model.Reservation, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidReservationStatus
	}
	owned, err := s.shopRepo.OwnedShopIDs(ownerID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	reservations, err := s.reservationRepo.FindByShopIDs(owned, status)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return reservations, nil
}

// ExpireOverdue moves every open reservation past its expiry to expired
func (s *reservationService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now()
	expired := 0
	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		batch, err := s.reservationRepo.FindOverdue(now, expiryBatchSize)
		if err != nil {
			return expired, storeError(err, nil)
		}

		progressed := 0
		for i := range batch {
			err := s.transition(ctx, &batch[i], model.ReservationExpired, "Pickup window passed", nil)
			if errors.Is(err, ErrIllegalReservationTransition) {
				// moved by someone else since the query
				continue
			}
			if err != nil {
				return expired, err
			}
			progressed++
		}
		expired += progressed

		if len(batch) < expiryBatchSize || progressed == 0 {
			break
		}
	}

	if expired > 0 {
		logger.Info("Expired overdue reservations", map[string]interface{}{
			"count": expired,
		})
	}
	return expired, nil
}
