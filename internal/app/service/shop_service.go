package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/locallens/locallens-backend/pkg/util"
	"github.com/paulmach/orb"
)

const (
	DefaultSearchRadiusKm = 5.0
	MaxSearchRadiusKm     = 100.0
)

type ShopDraft struct {
	Name                 string
	Description          string
	Phone                string
	Email                string
	Address              string
	City                 string
	State                string
	PostalCode           string
	Latitude             float64
	Longitude            float64
	Categories           []string
	LogoURL              string
	CoverImageURL        string
	VerificationDocument string
	BusinessHours        []model.BusinessHours
}

// ShopMutation carries a partial profile update. Nil fields are left untouched.
type ShopMutation struct {
	Name                 *string
	Description          *string
	Phone                *string
	Email                *string
	Address              *string
	City                 *string
	State                *string
	PostalCode           *string
	Latitude             *float64
	Longitude            *float64
	Categories           []string
	LogoURL              *string
	CoverImageURL        *string
	VerificationDocument *string
	BusinessHours        []model.BusinessHours
}

type ShopQuery struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	Category  string
	Search    string
	Page      int
	Limit     int
}

// ShopResult is a discovered shop. DistanceKm is nil when the query had no center.
type ShopResult struct {
	model.Shop
	DistanceKm *float64 `json:"distance_km"`
}

type ShopSearchResult struct {
	Shops      []ShopResult `json:"shops"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"total_pages"`
}

type DecisionResult struct {
	Shop          *model.Shop `json:"shop"`
	OwnerPromoted bool        `json:"owner_promoted"`
}

type ShopService interface {
	SubmitShop(ownerID uint, draft ShopDraft) (*model.Shop, error)
	Decide(ctx context.Context, shopID uint, decision model.VerificationStatus, note string) (*DecisionResult, error)
	ReconcileOwnerRoles(ctx context.Context) (int, error)
	FindShops(query ShopQuery) (*ShopSearchResult, error)
	GetShop(shopID uint) (*model.Shop, error)
	GetVisibleShop(shopID uint, viewerID uint, viewerRole model.UserRole) (*model.Shop, error)
	ListMyShops(ownerID uint) ([]model.Shop, error)
	UpdateShop(actorID, shopID uint, input ShopMutation) (*model.Shop, error)
	ListForAdmin(status *model.VerificationStatus, page repository.Page) ([]model.Shop, int64, error)
	SetActive(shopID uint, active bool) (*model.Shop, error)
}

type shopService struct {
	shopRepo      repository.ShopRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	publisher     events.Publisher
}

func NewShopService(
	shopRepo repository.ShopRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	publisher events.Publisher,
) ShopService {
	return &shopService{
		shopRepo:      shopRepo,
		userRepo:      userRepo,
		notifications: notifications,
		publisher:     publisher,
	}
}

func (s *shopService) SubmitShop(ownerID uint, draft ShopDraft) (*model.Shop, error) {
	logger.Info("Submitting shop", map[string]interface{}{
		"owner_id": ownerID,
		"name":     draft.Name,
	})

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, ErrShopNameRequired
	}
	if !model.ValidCoordinates(draft.Latitude, draft.Longitude) {
		return nil, ErrInvalidLocation
	}

	shop := &model.Shop{
		OwnerID:              ownerID,
		Name:                 name,
		Description:          draft.Description,
		Phone:                draft.Phone,
		Email:                draft.Email,
		Address:              draft.Address,
		City:                 draft.City,
		State:                draft.State,
		PostalCode:           draft.PostalCode,
		Latitude:             draft.Latitude,
		Longitude:            draft.Longitude,
		Categories:           model.NormalizeCategories(draft.Categories),
		LogoURL:              draft.LogoURL,
		CoverImageURL:        draft.CoverImageURL,
		VerificationDocument: draft.VerificationDocument,
		VerificationStatus:   model.VerificationPending,
		IsVerified:           false,
		IsActive:             true,
		BusinessHours:        draft.BusinessHours,
	}

	if err := s.shopRepo.Create(shop); err != nil {
		logger.Error("Failed to create shop", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, storeError(err, nil)
	}

	logger.Info("Shop submitted for verification", map[string]interface{}{
		"shop_id":  shop.ID,
		"owner_id": ownerID,
	})
	return shop, nil
}

// Decide records an admin verification decision. Deciding again overwrites the previous
// decision. Owner promotion is a separate write whose failure is logged and left to
// ReconcileOwnerRoles.
func (s *shopService) Decide(ctx context.Context, shopID uint, decision model.VerificationStatus, note string) (*DecisionResult, error) {
	logger.Info("Deciding shop verification", map[string]interface{}{
		"shop_id":  shopID,
		"decision": decision,
	})

	if !decision.IsDecision() {
		return nil, ErrInvalidDecision
	}

	shop, err := s.shopRepo.FindByID(shopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}

	now := time.Now()
	fields := map[string]interface{}{
		"verification_status": decision,
		"verification_date":   now,
		"is_verified":         decision == model.VerificationVerified,
		"verification_note":   note,
	}
	if err := s.shopRepo.UpdateFields(shopID, fields); err != nil {
		logger.Error("Failed to record verification decision", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, storeError(err, ErrShopNotFound)
	}
	shop.VerificationStatus = decision
	shop.VerificationDate = &now
	shop.IsVerified = decision == model.VerificationVerified
	shop.VerificationNote = note

	result := &DecisionResult{Shop: shop}
	if decision == model.VerificationVerified {
		promoted, err := s.userRepo.PromoteToRetailer(shop.OwnerID)
		if err != nil {
			logger.Error("Owner promotion failed, reconciliation will retry", err, map[string]interface{}{
				"shop_id":  shopID,
				"owner_id": shop.OwnerID,
			})
		}
		result.OwnerPromoted = promoted
	}

	title := "Your shop has been verified"
	message := fmt.Sprintf("%s is now visible to customers.", shop.Name)
	if decision == model.VerificationRejected {
		title = "Your shop verification was rejected"
		message = fmt.Sprintf("%s was not approved.", shop.Name)
		if note != "" {
			message += " " + note
		}
	}
	if s.notifications != nil {
		s.notifications.Notify(&model.Notification{
			UserID:        shop.OwnerID,
			Type:          model.NotificationShopVerification,
			Title:         title,
			Message:       message,
			Link:          fmt.Sprintf("/shops/%d", shop.ID),
			RelatedShopID: &shop.ID,
		})
	}
	publishEvent(ctx, s.publisher, events.ShopVerificationDecided, map[string]interface{}{
		"shop_id":        shop.ID,
		"owner_id":       shop.OwnerID,
		"decision":       decision,
		"owner_promoted": result.OwnerPromoted,
	})

	logger.Info("Shop verification decided", map[string]interface{}{
		"shop_id":        shopID,
		"decision":       decision,
		"owner_promoted": result.OwnerPromoted,
	})
	return result, nil
}

func (s *shopService) ReconcileOwnerRoles(ctx context.Context) (int, error) {
	ids, err := s.userRepo.FindCustomerOwnersOfVerifiedShops()
	if err != nil {
		return 0, storeError(err, nil)
	}

	promoted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return promoted, ctx.Err()
		}
		ok, err := s.userRepo.PromoteToRetailer(id)
		if err != nil {
			logger.Error("Failed to promote owner during reconciliation", err, map[string]interface{}{
				"user_id": id,
			})
			continue
		}
		if ok {
			promoted++
		}
	}
	return promoted, nil
}

func (s *shopService) FindShops(query ShopQuery) (*ShopSearchResult, error) {
	page := repository.Page{Page: query.Page, Limit: query.Limit}.Normalize()
	filter := repository.ShopDiscoveryFilter{
		Category: strings.TrimSpace(query.Category),
		Search:   strings.TrimSpace(query.Search),
	}

	if query.Latitude == nil || query.Longitude == nil {
		shops, total, err := s.shopRepo.Discover(filter, page)
		if err != nil {
			logger.Error("Failed to discover shops", err)
			return nil, storeError(err, nil)
		}
		results := make([]ShopResult, len(shops))
		for i := range shops {
			results[i] = ShopResult{Shop: shops[i]}
		}
		return newShopSearchResult(results, total, page), nil
	}

	lat, lng := *query.Latitude, *query.Longitude
	radius := query.RadiusKm
	if radius == 0 {
		radius = DefaultSearchRadiusKm
	}
	if !model.ValidCoordinates(lat, lng) || radius < 0 || radius > MaxSearchRadiusKm {
		return nil, ErrInvalidSearchInput
	}

	center := orb.Point{lng, lat}
	candidates, err := s.shopRepo.DiscoverWithin(filter, util.BoundAround(center, radius))
	if err != nil {
		logger.Error("Failed to discover nearby shops", err, map[string]interface{}{
			"lat":       lat,
			"lng":       lng,
			"radius_km": radius,
		})
		return nil, storeError(err, nil)
	}

	nearby := make([]ShopResult, 0, len(candidates))
	for i := range candidates {
		d := util.DistanceBetween(center, candidates[i].Location())
		if d > radius {
			continue
		}
		nearby = append(nearby, ShopResult{Shop: candidates[i], DistanceKm: &d})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		if *nearby[i].DistanceKm != *nearby[j].DistanceKm {
			return *nearby[i].DistanceKm < *nearby[j].DistanceKm
		}
		return nearby[i].Name < nearby[j].Name
	})

	total := int64(len(nearby))
	start := page.Offset()
	if start > len(nearby) {
		start = len(nearby)
	}
	end := start + page.Limit
	if end > len(nearby) {
		end = len(nearby)
	}
	return newShopSearchResult(nearby[start:end], total, page), nil
}

func newShopSearchResult(shops []ShopResult, total int64, page repository.Page) *ShopSearchResult {
	return &ShopSearchResult{
		Shops:      shops,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}
}

func (s *shopService) GetShop(shopID uint) (*model.Shop, error) {
	shop, err := s.shopRepo.FindByID(shopID)
	if err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	return shop, nil
}

// GetVisibleShop hides shops that are not admitted to discovery from everyone but
// their owner and admins.
func (s *shopService) GetVisibleShop(shopID uint, viewerID uint, viewerRole model.UserRole) (*model.Shop, error) {
	shop, err := s.GetShop(shopID)
	if err != nil {
		return nil, err
	}
	if shop.IsVerified && shop.IsActive {
		return shop, nil
	}
	if viewerRole == model.RoleAdmin || (viewerID != 0 && shop.OwnerID == viewerID) {
		return shop, nil
	}
	return nil, ErrShopNotFound
}

func (s *shopService) ListMyShops(ownerID uint) ([]model.Shop, error) {
	shops, err := s.shopRepo.FindByOwnerID(ownerID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return shops, nil
}

func (s *shopService) UpdateShop(actorID, shopID uint, input ShopMutation) (*model.Shop, error) {
	logger.Info("Updating shop", map[string]interface{}{
		"shop_id":  shopID,
		"actor_id": actorID,
	})

	shop, err := s.GetShop(shopID)
	if err != nil {
		return nil, err
	}
	if shop.OwnerID != actorID {
		logger.Warn("Shop update denied", map[string]interface{}{
			"shop_id":  shopID,
			"actor_id": actorID,
			"owner_id": shop.OwnerID,
		})
		return nil, ErrNotOwner
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrShopNameRequired
		}
		shop.Name = name
	}
	if input.Description != nil {
		shop.Description = *input.Description
	}
	if input.Phone != nil {
		shop.Phone = *input.Phone
	}
	if input.Email != nil {
		shop.Email = *input.Email
	}
	if input.Address != nil {
		shop.Address = *input.Address
	}
	if input.City != nil {
		shop.City = *input.City
	}
	if input.State != nil {
		shop.State = *input.State
	}
	if input.PostalCode != nil {
		shop.PostalCode = *input.PostalCode
	}
	if input.Latitude != nil {
		shop.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		shop.Longitude = *input.Longitude
	}
	if !model.ValidCoordinates(shop.Latitude, shop.Longitude) {
		return nil, ErrInvalidLocation
	}
	if input.Categories != nil {
		shop.Categories = model.NormalizeCategories(input.Categories)
	}
	if input.LogoURL != nil {
		shop.LogoURL = *input.LogoURL
	}
	if input.CoverImageURL != nil {
		shop.CoverImageURL = *input.CoverImageURL
	}
	if input.VerificationDocument != nil {
		shop.VerificationDocument = *input.VerificationDocument
	}
	if input.BusinessHours != nil {
		shop.BusinessHours = input.BusinessHours
	}

	if err := s.shopRepo.Update(shop); err != nil {
		logger.Error("Failed to update shop", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, storeError(err, ErrShopNotFound)
	}
	return shop, nil
}

func (s *shopService) ListForAdmin(status *model.VerificationStatus, page repository.Page) ([]model.Shop, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidDecision
	}
	shops, total, err := s.shopRepo.ListForAdmin(repository.ShopAdminFilter{Status: status, Page: page})
	if err != nil {
		return nil, 0, storeError(err, nil)
	}
	return shops, total, nil
}

func (s *shopService) SetActive(shopID uint, active bool) (*model.Shop, error) {
	logger.Info("Setting shop active flag", map[string]interface{}{
		"shop_id":   shopID,
		"is_active": active,
	})
	if err := s.shopRepo.UpdateFields(shopID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, storeError(err, ErrShopNotFound)
	}
	return s.GetShop(shopID)
}
