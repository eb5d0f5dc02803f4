package repository

import (
	"errors"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

// ReservationTransition is a compare-and-swap status change plus its history entry
type ReservationTransition struct {
	ReservationID uint
	From          model.ReservationStatus
	To            model.ReservationStatus
	Entry         model.ReservationStatusUpdate
}

type ReservationRepository interface {
	Create(reservation *model.Reservation) error
	ExistsByNumber(number string) (bool, error)
	FindByID(id uint) (*model.Reservation, error)
	FindByUserID(userID uint, page Page) ([]model.Reservation, int64, error)
	FindByShopIDs(shopIDs []uint, status *model.ReservationStatus) ([]model.Reservation, error)
	FindOverdue(now time.Time, limit int) ([]model.Reservation, error)
	Transition(t ReservationTransition) error
	AppendStatusUpdate(entry *model.ReservationStatusUpdate) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) preload() *gorm.DB {
	return r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusUpdates", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

func (r *reservationRepository) Create(reservation *model.Reservation) error {
	logger.Debug("Creating reservation in database", map[string]interface{}{
		"user_id": reservation.UserID,
		"shop_id": reservation.ShopID,
		"number":  reservation.ReservationNumber,
	})

	if err := r.db.Create(reservation).Error; err != nil {
		logger.Error("Failed to create reservation in database", err, map[string]interface{}{
			"user_id": reservation.UserID,
			"shop_id": reservation.ShopID,
		})
		return err
	}
	return nil
}

func (r *reservationRepository) ExistsByNumber(number string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Reservation{}).Where("reservation_number = ?", number).Count(&count).Error; err != nil {
		logger.Error("Failed to check reservation number", err)
		return false, err
	}
	return count > 0, nil
}

func (r *reservationRepository) FindByID(id uint) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.preload().First(&reservation, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find reservation by ID", err, map[string]interface{}{
				"reservation_id": id,
			})
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByUserID(userID uint, page Page) ([]model.Reservation, int64, error) {
	var total int64
	if err := r.db.Model(&model.Reservation{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		logger.Error("Failed to count reservations by user", err, map[string]interface{}{"user_id": userID})
		return nil, 0, err
	}

	page = page.Normalize()
	var reservations []model.Reservation
	if err := r.preload().Where("user_id = ?", userID).
		Order("pickup_date DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&reservations).Error; err != nil {
		logger.Error("Failed to find reservations by user", err, map[string]interface{}{"user_id": userID})
		return nil, 0, err
	}
	return reservations, total, nil
}

func (r *reservationRepository) FindByShopIDs(shopIDs []uint, status *model.ReservationStatus) ([]model.Reservation, error) {
	if len(shopIDs) == 0 {
		return []model.Reservation{}, nil
	}
	query := r.preload().Where("shop_id IN ?", shopIDs)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var reservations []model.Reservation
	if err := query.Order("pickup_date ASC, id ASC").Find(&reservations).Error; err != nil {
		logger.Error("Failed to find reservations by shops", err, map[string]interface{}{
			"shop_ids": shopIDs,
		})
		return nil, err
	}
	return reservations, nil
}

// FindOverdue returns open reservations whose expiry is before now, oldest first
func (r *reservationRepository) FindOverdue(now time.Time, limit int) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.Where("status IN ? AND expiry_date < ?", model.OpenReservationStatuses, now).
		Order("expiry_date ASC, id ASC").
		Limit(limit).
		Find(&reservations).Error
	if err != nil {
		logger.Error("Failed to find overdue reservations", err)
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Transition(t ReservationTransition) error {
	logger.Debug("Transitioning reservation status", map[string]interface{}{
		"reservation_id": t.ReservationID,
		"from":           t.From,
		"to":             t.To,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Reservation{}).
			Where("id = ? AND status = ?", t.ReservationID, t.From).
			Update("status", t.To)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		entry := t.Entry
		entry.ReservationID = t.ReservationID
		return tx.Create(&entry).Error
	})
	if err != nil && !errors.Is(err, ErrStaleState) {
		logger.Error("Failed to transition reservation status", err, map[string]interface{}{
			"reservation_id": t.ReservationID,
		})
	}
	return err
}

func (r *reservationRepository) AppendStatusUpdate(entry *model.ReservationStatusUpdate) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to append reservation status update", err, map[string]interface{}{
			"reservation_id": entry.ReservationID,
		})
		return err
	}
	return nil
}
