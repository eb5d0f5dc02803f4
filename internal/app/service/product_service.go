package service

import (
	"context"
	"errors"
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/storage"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VariantInput struct {
	Attributes map[string]string
	Price      float64
	Quantity   int
	SKU        string
}

type ProductInput struct {
	Name               string
	Description        string
	Category           string
	SKU                string
	BasePrice          float64
	DiscountPercentage float64
	Tax                float64
	AvailableQuantity  int
	IsActive           *bool
	IsAvailable        *bool
	Variants           []VariantInput // nil keeps existing variants on update
	PreBook            *model.PurchaseOption
	PreBuy             *model.PurchaseOption
	Images             []model.ProductImage // nil keeps existing images on update
}

type ProductListOptions struct {
	Category string
	Search   string
	Page     repository.Page
}

type ProductService interface {
	CreateProduct(actorID, shopID uint, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, actorID, productID uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, actorID, productID uint) error
	GetProduct(productID uint) (*model.Product, error)
	ListShopProducts(shopID uint, opts ProductListOptions) ([]model.Product, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	media       storage.MediaStorage
}

// NewProductService creates the service. media may be nil, in which case images are never deleted.
func NewProductService(productRepo repository.ProductRepository, shopRepo repository.ShopRepository, media storage.MediaStorage) ProductService {
	return &productService{
		productRepo: productRepo,
		shopRepo:    shopRepo,
		media:       media,
	}
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" || input.BasePrice < 0 || input.Tax < 0 ||
		input.DiscountPercentage < 0 || input.DiscountPercentage > 100 || input.AvailableQuantity < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// buildVariants rejects two variants with the same attribute set, compared case-insensitively
func buildVariants(inputs []VariantInput) ([]model.ProductVariant, error) {
	seen := make(map[string]struct{}, len(inputs))
	variants := make([]model.ProductVariant, 0, len(inputs))
	for _, in := range inputs {
		if in.Price < 0 || in.Quantity < 0 {
			return nil, ErrInvalidProduct
		}
		key := model.AttributeKey(in.Attributes)
		if _, dup := seen[key]; dup {
			return nil, ErrDuplicateVariant
		}
		seen[key] = struct{}{}
		variants = append(variants, model.ProductVariant{
			Attributes: datatypes.NewJSONType(in.Attributes),
			Price:      in.Price,
			Quantity:   in.Quantity,
			SKU:        in.SKU,
		})
	}
	return variants, nil
}

func (s *productService) ownedShop(actorID, shopID uint) (*model.Shop, error) {
	shop, err := s.shopRepo.FindByID(shopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	if shop.OwnerID != actorID {
		logger.Warn("Product access denied", map[string]interface{}{
			"shop_id":  shopID,
			"actor_id": actorID,
		})
		return nil, ErrNotOwner
	}
	return shop, nil
}

func (s *productService) CreateProduct(actorID, shopID uint, input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"shop_id": shopID,
		"name":    input.Name,
	})

	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if _, err := s.ownedShop(actorID, shopID); err != nil {
		return nil, err
	}
	variants, err := buildVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ShopID:             shopID,
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Category:           strings.ToLower(strings.TrimSpace(input.Category)),
		SKU:                input.SKU,
		BasePrice:          input.BasePrice,
		DiscountPercentage: input.DiscountPercentage,
		Tax:                input.Tax,
		AvailableQuantity:  input.AvailableQuantity,
		IsActive:           true,
		IsAvailable:        true,
		HasVariants:        len(variants) > 0,
		Variants:           variants,
		Images:             input.Images,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
	if input.PreBook != nil {
		product.PreBook = datatypes.NewJSONType(*input.PreBook)
	}
	if input.PreBuy != nil {
		product.PreBuy = datatypes.NewJSONType(*input.PreBuy)
	}

	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateVariant
		}
		logger.Error("Failed to create product", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, storeError(err, nil)
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"shop_id":    shopID,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, actorID, productID uint, input ProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": productID,
	})

	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, storeError(err, ErrProductNotFound)
	}
	if _, err := s.ownedShop(actorID, product.ShopID); err != nil {
		return nil, err
	}

	replaceVariants := input.Variants != nil
	if replaceVariants {
		variants, err := buildVariants(input.Variants)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
		product.HasVariants = len(variants) > 0
	}

	var removed []model.ProductImage
	if input.Images != nil {
		removed = removedImages(product.Images, input.Images)
		product.Images = input.Images
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = strings.ToLower(strings.TrimSpace(input.Category))
	product.SKU = input.SKU
	product.BasePrice = input.BasePrice
	product.DiscountPercentage = input.DiscountPercentage
	product.Tax = input.Tax
	product.AvailableQuantity = input.AvailableQuantity
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
	if input.PreBook != nil {
		product.PreBook = datatypes.NewJSONType(*input.PreBook)
	}
	if input.PreBuy != nil {
		product.PreBuy = datatypes.NewJSONType(*input.PreBuy)
	}

	if err := s.productRepo.Update(product, replaceVariants); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateVariant
		}
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, storeError(err, ErrProductNotFound)
	}

	s.deleteImages(ctx, removed)
	return s.productRepo.FindByID(productID)
}

func (s *productService) DeleteProduct(ctx context.Context, actorID, productID uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return storeError(err, ErrProductNotFound)
	}
	if _, err := s.ownedShop(actorID, product.ShopID); err != nil {
		return err
	}

	if err := s.productRepo.Delete(productID); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": productID,
		})
		return storeError(err, ErrProductNotFound)
	}

	s.deleteImages(ctx, product.Images)
	return nil
}

// deleteImages removes media best effort. Orphaned objects are acceptable.
func (s *productService) deleteImages(ctx context.Context, images []model.ProductImage) {
	if s.media == nil {
		return
	}
	for _, img := range images {
		if img.StorageID == "" {
			continue
		}
		if err := s.media.Delete(ctx, img.StorageID); err != nil {
			logger.Warn("Failed to delete product image", map[string]interface{}{
				"storage_id": img.StorageID,
				"error":      err.Error(),
			})
		}
	}
}

func removedImages(before, after []model.ProductImage) []model.ProductImage {
	kept := make(map[string]struct{}, len(after))
	for _, img := range after {
		kept[img.StorageID] = struct{}{}
	}
	var removed []model.ProductImage
	for _, img := range before {
		if _, ok := kept[img.StorageID]; !ok {
			removed = append(removed, img)
		}
	}
	return removed
}

func (s *productService) GetProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, storeError(err, ErrProductNotFound)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ListShopProducts(shopID uint, opts ProductListOptions) ([]model.Product, int64, error) {
	products, total, err := s.productRepo.List(repository.ProductFilter{
		ShopID:     shopID,
		Category:   opts.Category,
		Search:     opts.Search,
		ActiveOnly: true,
		Page:       opts.Page,
	})
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, 0, storeError(err, nil)
	}
	return products, total, nil
}
