package service

import (
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	apperrors "github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/pkg/logger"
)

type AddressInput struct {
	Label      string
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Latitude   *float64
	Longitude  *float64
	IsDefault  bool
}

type AddressService interface {
	GetUserAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefaultAddress(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Recipient) == "" || strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.Line1) == "" || strings.TrimSpace(in.City) == "" {
		return apperrors.InvalidArgument(apperrors.ValidationRequired, "Recipient, phone, street and city are required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return ErrInvalidLocation
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180) {
		return ErrInvalidLocation
	}
	return nil
}

func (in AddressInput) apply(address *model.Address) {
	address.Label = strings.TrimSpace(in.Label)
	address.Recipient = strings.TrimSpace(in.Recipient)
	address.Phone = strings.TrimSpace(in.Phone)
	address.Line1 = strings.TrimSpace(in.Line1)
	address.Line2 = strings.TrimSpace(in.Line2)
	address.City = strings.TrimSpace(in.City)
	address.State = strings.TrimSpace(in.State)
	address.PostalCode = strings.TrimSpace(in.PostalCode)
	address.Country = strings.TrimSpace(in.Country)
	address.Latitude = in.Latitude
	address.Longitude = in.Longitude
}

func (s *addressService) GetUserAddresses(userID uint) ([]model.Address, error) {
	logger.Debug("Fetching user addresses", map[string]interface{}{
		"user_id": userID,
	})

	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return addresses, nil
}

func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	logger.Info("Creating address", map[string]interface{}{
		"user_id":    userID,
		"is_default": input.IsDefault,
	})

	if err := input.validate(); err != nil {
		return nil, err
	}
	address := &model.Address{UserID: userID}
	input.apply(address)

	if err := s.addressRepo.Create(address, input.IsDefault); err != nil {
		return nil, storeError(err, ErrUserNotFound)
	}

	logger.Info("Address created successfully", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    userID,
		"is_default": address.IsDefault,
	})
	return address, nil
}

// UpdateAddress edits the address. IsDefault=false never clears an existing default.
func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	logger.Info("Updating address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	if err := input.validate(); err != nil {
		return nil, err
	}
	address, err := s.addressRepo.FindByIDAndUserID(addressID, userID)
	if err != nil {
		return nil, storeError(err, ErrAddressNotFound)
	}
	input.apply(address)

	if err := s.addressRepo.Update(address, input.IsDefault && !address.IsDefault); err != nil {
		return nil, storeError(err, ErrAddressNotFound)
	}
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	logger.Info("Deleting address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	newDefault, err := s.addressRepo.Delete(userID, addressID)
	if err != nil {
		return storeError(err, ErrAddressNotFound)
	}
	if newDefault != nil {
		logger.Info("Default address reassigned", map[string]interface{}{
			"user_id":    userID,
			"address_id": *newDefault,
		})
	}
	return nil
}

func (s *addressService) SetDefaultAddress(userID, addressID uint) error {
	logger.Info("Setting default address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
		return storeError(err, ErrAddressNotFound)
	}
	return nil
}
