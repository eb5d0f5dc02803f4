package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type VariantRequest struct {
	Attributes map[string]string `json:"attributes" binding:"required"`
	Price      float64           `json:"price" binding:"gte=0"`
	Quantity   int               `json:"quantity" binding:"gte=0"`
	SKU        string            `json:"sku"`
}

type ProductRequest struct {
	Name               string                `json:"name" binding:"required,max=200"`
	Description        string                `json:"description"`
	Category           string                `json:"category"`
	SKU                string                `json:"sku"`
	BasePrice          float64               `json:"base_price" binding:"gte=0"`
	DiscountPercentage float64               `json:"discount_percentage" binding:"gte=0,lte=100"`
	Tax                float64               `json:"tax" binding:"gte=0,lte=100"`
	AvailableQuantity  int                   `json:"available_quantity" binding:"gte=0"`
	IsActive           *bool                 `json:"is_active"`
	IsAvailable        *bool                 `json:"is_available"`
	Variants           []VariantRequest      `json:"variants" binding:"omitempty,dive"`
	PreBook            *model.PurchaseOption `json:"pre_book"`
	PreBuy             *model.PurchaseOption `json:"pre_buy"`
	Images             []model.ProductImage  `json:"images"`
}

func (req ProductRequest) toInput() service.ProductInput {
	var variants []service.VariantInput
	if req.Variants != nil {
		variants = make([]service.VariantInput, len(req.Variants))
		for i, v := range req.Variants {
			variants[i] = service.VariantInput{
				Attributes: v.Attributes,
				Price:      v.Price,
				Quantity:   v.Quantity,
				SKU:        v.SKU,
			}
		}
	}
	return service.ProductInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		SKU:                req.SKU,
		BasePrice:          req.BasePrice,
		DiscountPercentage: req.DiscountPercentage,
		Tax:                req.Tax,
		AvailableQuantity:  req.AvailableQuantity,
		IsActive:           req.IsActive,
		IsAvailable:        req.IsAvailable,
		Variants:           variants,
		PreBook:            req.PreBook,
		PreBuy:             req.PreBuy,
		Images:             req.Images,
	}
}

// CreateProduct adds a product to the caller's shop
// POST /api/v1/shops/:id/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.CreateProduct(userID, shopID, req.toInput())
	if err != nil {
		log.Warn("Product creation failed", map[string]interface{}{
			"user_id": userID,
			"shop_id": shopID,
			"error":   err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"shop_id":    shopID,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// GetProduct returns one active product
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(productID)
	if err != nil {
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListShopProducts lists a shop's active products
// GET /api/v1/shops/:id/products?category=&search=&page=&limit=
func (ctrl *ProductController) ListShopProducts(c *gin.Context) {
	shopID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page := pageFromQuery(c)

	products, total, err := ctrl.productService.ListShopProducts(shopID, service.ProductListOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
	})
	if err != nil {
		errors.Respond(c, err)
		return
	}
	paginated(c, "products", products, total, page)
}

// UpdateProduct replaces a product's editable fields
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), userID, productID, req.toInput())
	if err != nil {
		log.Warn("Product update failed", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct removes a product and its media
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), userID, productID); err != nil {
		log.Warn("Product deletion failed", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		errors.Respond(c, err)
		return
	}

	log.Info("Product deleted", map[string]interface{}{
		"product_id": productID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
