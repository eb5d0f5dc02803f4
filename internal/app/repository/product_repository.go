package repository

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductFilter struct {
	ShopID     uint
	Category   string
	Search     string
	ActiveOnly bool
	Page       Page
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	List(filter ProductFilter) ([]model.Product, int64, error)
	Update(product *model.Product, replaceVariants bool) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"shop_id":  product.ShopID,
		"name":     product.Name,
		"variants": len(product.Variants),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"shop_id": product.ShopID,
			"name":    product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) withVariants() *gorm.DB {
	return r.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.withVariants().First(&product, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find product by ID", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.withVariants().Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) List(filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.Model(&model.Product{})
	if filter.ShopID != 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Search != "" {
		like := model.ContainsPattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var products []model.Product
	if err := query.Preload("Variants").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&products).Error; err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"shop_id": filter.ShopID,
		})
		return nil, 0, err
	}
	return products, total, nil
}

// Update saves product columns. With replaceVariants the variant rows are replaced wholesale.
func (r *productRepository) Update(product *model.Product, replaceVariants bool) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id":       product.ID,
		"replace_variants": replaceVariants,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variants").Save(product).Error; err != nil {
			return err
		}
		if !replaceVariants {
			return nil
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range product.Variants {
			product.Variants[i].ID = 0
			product.Variants[i].ProductID = product.ID
		}
		if len(product.Variants) == 0 {
			return nil
		}
		return tx.Create(&product.Variants).Error
	})
	if err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// applyStock changes product or variant stock inside tx. Negative quantities decrement and
// fail with ErrInsufficientStock when the row would go below zero.
func applyStock(tx *gorm.DB, deltas []StockDelta, sign int) error {
	for _, d := range deltas {
		change := d.Quantity * sign
		var result *gorm.DB
		if d.VariantID != nil {
			query := tx.Model(&model.ProductVariant{}).Where("id = ? AND product_id = ?", *d.VariantID, d.ProductID)
			if change < 0 {
				query = query.Where("quantity >= ?", -change)
			}
			result = query.Update("quantity", gorm.Expr("quantity + ?", change))
		} else {
			query := tx.Model(&model.Product{}).Where("id = ?", d.ProductID)
			if change < 0 {
				query = query.Where("available_quantity >= ?", -change)
			}
			result = query.Update("available_quantity", gorm.Expr("available_quantity + ?", change))
		}
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 && change < 0 {
			logger.Warn("Stock decrement rejected", map[string]interface{}{
				"product_id": d.ProductID,
				"variant_id": d.VariantID,
				"quantity":   d.Quantity,
			})
			return ErrInsufficientStock
		}
	}
	return nil
}
