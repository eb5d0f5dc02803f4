package repository

import (
	"errors"
	"strings"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// ShopDiscoveryFilter holds the conjunctive filters of public discovery.
// Verified and active are always enforced.
type ShopDiscoveryFilter struct {
	Category string
	Search   string
}

// ShopAdminFilter drives the admin review queue
type ShopAdminFilter struct {
	Status *model.VerificationStatus
	Page   Page
}

type ShopRepository interface {
	Create(shop *model.Shop) error
	BulkCreate(shops []model.Shop, batchSize int) error
	FindByID(id uint) (*model.Shop, error)
	FindByOwnerID(ownerID uint) ([]model.Shop, error)
	OwnedShopIDs(ownerID uint) ([]uint, error)
	Update(shop *model.Shop) error
	UpdateFields(id uint, fields map[string]interface{}) error
	ListForAdmin(filter ShopAdminFilter) ([]model.Shop, int64, error)
	Discover(filter ShopDiscoveryFilter, page Page) ([]model.Shop, int64, error)
	DiscoverWithin(filter ShopDiscoveryFilter, bound orb.Bound) ([]model.Shop, error)
	RefreshRating(shopID uint) error
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(shop *model.Shop) error {
	logger.Debug("Creating shop in database", map[string]interface{}{
		"name":     shop.Name,
		"owner_id": shop.OwnerID,
	})

	if err := r.db.Create(shop).Error; err != nil {
		logger.Error("Failed to create shop in database", err, map[string]interface{}{
			"name":     shop.Name,
			"owner_id": shop.OwnerID,
		})
		return err
	}

	logger.Debug("Shop created in database", map[string]interface{}{
		"shop_id":  shop.ID,
		"owner_id": shop.OwnerID,
	})
	return nil
}

// BulkCreate inserts shops in batches inside one transaction
func (r *shopRepository) BulkCreate(shops []model.Shop, batchSize int) error {
	if len(shops) == 0 {
		return nil
	}
	logger.Info("Bulk creating shops", map[string]interface{}{
		"count":      len(shops),
		"batch_size": batchSize,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(shops, batchSize).Error
	})
	if err != nil {
		logger.Error("Failed to bulk create shops", err, map[string]interface{}{
			"count": len(shops),
		})
		return err
	}
	return nil
}

func (r *shopRepository) FindByID(id uint) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find shop by ID", err, map[string]interface{}{
				"shop_id": id,
			})
		}
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) FindByOwnerID(ownerID uint) ([]model.Shop, error) {
	var shops []model.Shop
	if err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC, id DESC").Find(&shops).Error; err != nil {
		logger.Error("Failed to find shops by owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return shops, nil
}

func (r *shopRepository) OwnedShopIDs(ownerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Shop{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
		logger.Error("Failed to list owned shop IDs", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return ids, nil
}

func (r *shopRepository) Update(shop *model.Shop) error {
	logger.Debug("Updating shop in database", map[string]interface{}{
		"shop_id": shop.ID,
	})

	if err := r.db.Save(shop).Error; err != nil {
		logger.Error("Failed to update shop in database", err, map[string]interface{}{
			"shop_id": shop.ID,
		})
		return err
	}
	return nil
}

// UpdateFields applies a field-level update scoped to one shop id
func (r *shopRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	logger.Debug("Updating shop fields", map[string]interface{}{
		"shop_id": id,
		"fields":  len(fields),
	})

	result := r.db.Model(&model.Shop{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		logger.Error("Failed to update shop fields", result.Error, map[string]interface{}{
			"shop_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shopRepository) ListForAdmin(filter ShopAdminFilter) ([]model.Shop, int64, error) {
	query := r.db.Model(&model.Shop{})
	if filter.Status != nil {
		query = query.Where("verification_status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count shops for admin", err)
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var shops []model.Shop
	if err := query.Order("created_at ASC, id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&shops).Error; err != nil {
		logger.Error("Failed to list shops for admin", err)
		return nil, 0, err
	}
	return shops, total, nil
}

func (r *shopRepository) discoverable(filter ShopDiscoveryFilter) *gorm.DB {
	query := r.db.Model(&model.Shop{}).Where("is_verified = ? AND is_active = ?", true, true)
	if filter.Category != "" {
		query = query.Where(`LOWER(categories) LIKE ? ESCAPE '\'`, model.LikePattern(filter.Category))
	}
	if strings.TrimSpace(filter.Search) != "" {
		like := model.ContainsPattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	return query
}

// Discover returns one page of discoverable shops ordered by name
func (r *shopRepository) Discover(filter ShopDiscoveryFilter, page Page) ([]model.Shop, int64, error) {
	logger.Debug("Discovering shops", map[string]interface{}{
		"category": filter.Category,
		"search":   filter.Search,
		"page":     page.Page,
	})

	var total int64
	if err := r.discoverable(filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count discoverable shops", err)
		return nil, 0, err
	}

	page = page.Normalize()
	var shops []model.Shop
	if err := r.discoverable(filter).
		Order("name ASC, id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&shops).Error; err != nil {
		logger.Error("Failed to discover shops", err)
		return nil, 0, err
	}
	return shops, total, nil
}

// DiscoverWithin returns every discoverable shop inside bound. Callers refine by exact distance.
func (r *shopRepository) DiscoverWithin(filter ShopDiscoveryFilter, bound orb.Bound) ([]model.Shop, error) {
	logger.Debug("Discovering shops within bound", map[string]interface{}{
		"min_lat": bound.Min.Lat(),
		"max_lat": bound.Max.Lat(),
		"min_lng": bound.Min.Lon(),
		"max_lng": bound.Max.Lon(),
	})

	var shops []model.Shop
	err := r.discoverable(filter).
		Where("latitude BETWEEN ? AND ?", bound.Min.Lat(), bound.Max.Lat()).
		Where("longitude BETWEEN ? AND ?", bound.Min.Lon(), bound.Max.Lon()).
		Find(&shops).Error
	if err != nil {
		logger.Error("Failed to discover shops within bound", err)
		return nil, err
	}
	return shops, nil
}

// RefreshRating recomputes the cached rating and review count from the reviews table
func (r *shopRepository) RefreshRating(shopID uint) error {
	return refreshShopRating(r.db, shopID)
}

func refreshShopRating(tx *gorm.DB, shopID uint) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	if err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("shop_id = ?", shopID).
		Scan(&agg).Error; err != nil {
		logger.Error("Failed to aggregate shop rating", err, map[string]interface{}{"shop_id": shopID})
		return err
	}
	return tx.Model(&model.Shop{}).Where("id = ?", shopID).Updates(map[string]interface{}{
		"rating":       model.RoundMoney(agg.Avg),
		"review_count": agg.Count,
	}).Error
}
