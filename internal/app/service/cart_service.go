package service

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartService interface {
	GetUserCart(userID uint) ([]model.CartItem, error)
	AddToCart(userID, productID uint, variantID *uint, quantity int) (*model.CartItem, error)
	UpdateCartItem(userID, cartItemID uint, quantity int) error
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetUserCart(userID uint) ([]model.CartItem, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return cartItems, nil
}

// stockFor returns the purchasable stock of a product or its variant
func stockFor(product *model.Product, variantID *uint) (int, error) {
	if !product.IsActive || !product.IsAvailable {
		return 0, ErrProductUnavailable
	}
	if variantID == nil {
		if product.HasVariants {
			return 0, ErrVariantRequired
		}
		return product.AvailableQuantity, nil
	}
	variant := product.Variant(*variantID)
	if variant == nil {
		return 0, ErrVariantNotFound
	}
	return variant.Quantity, nil
}

// AddToCart adds quantity to the user's line for the product and variant, creating it if needed
func (s *cartService) AddToCart(userID, productID uint, variantID *uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"variant_id": variantID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, storeError(err, ErrProductNotFound)
	}
	stock, err := stockFor(product, variantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindByUserAndProduct(userID, productID, variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(err, nil)
	}
	if existing != nil {
		total := existing.Quantity + quantity
		if total > stock {
			return nil, ErrOutOfStock
		}
		if err := s.cartRepo.UpdateQuantity(existing.ID, total); err != nil {
			return nil, storeError(err, ErrCartItemNotFound)
		}
		existing.Quantity = total
		return existing, nil
	}

	if quantity > stock {
		return nil, ErrOutOfStock
	}
	item := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, storeError(err, nil)
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"cart_item_id": item.ID,
		"user_id":      userID,
	})
	return item, nil
}

func (s *cartService) UpdateCartItem(userID, cartItemID uint, quantity int) error {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item, err := s.cartRepo.FindByIDAndUserID(cartItemID, userID)
	if err != nil {
		return storeError(err, ErrCartItemNotFound)
	}
	product, err := s.productRepo.FindByID(item.ProductID)
	if err != nil {
		return storeError(err, ErrProductNotFound)
	}
	stock, err := stockFor(product, item.VariantID)
	if err != nil {
		return err
	}
	if quantity > stock {
		return ErrOutOfStock
	}

	if err := s.cartRepo.UpdateQuantity(item.ID, quantity); err != nil {
		return storeError(err, ErrCartItemNotFound)
	}
	return nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})

	if err := s.cartRepo.Delete(cartItemID, userID); err != nil {
		return storeError(err, ErrCartItemNotFound)
	}
	return nil
}

func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	if err := s.cartRepo.DeleteByUserID(userID); err != nil {
		return storeError(err, nil)
	}
	return nil
}
