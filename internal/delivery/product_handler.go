package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"

	"shop_service/internal/domain"
	"shop_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	useCase usecase.ProductUseCase
	log     *logrus.Logger
}

func NewProductHandler(uc usecase.ProductUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(public, admin gin.IRouter) {
	public.GET("/products", h.ListProducts)
	public.GET("/products/:id", h.GetProductByID)
	public.GET("/brands", h.ListBrands)

	admin.POST("/products", h.CreateProduct)
	admin.PATCH("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
}

type createProductRequest struct {
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description"`
	Brand          string              `json:"brand"`
	Image          string              `json:"image"`
	CategoryID     int                 `json:"category_id"`
	Price          *decimal.Decimal    `json:"price" binding:"required"`
	Discount       decimal.NullDecimal `json:"discount"`
	Stock          int                 `json:"stock"`
	Specifications map[string]any      `json:"specifications"`
}

type updateProductRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Brand          *string          `json:"brand"`
	Image          *string          `json:"image"`
	CategoryID     *int             `json:"category_id"`
	Price          *decimal.Decimal `json:"price"`
	Discount       *decimal.Decimal `json:"discount"`
	Stock          *int             `json:"stock"`
	Specifications map[string]any   `json:"specifications"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for create product: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product := &domain.Product{
		Name:           req.Name,
		Description:    req.Description,
		Brand:          req.Brand,
		Image:          req.Image,
		CategoryID:     req.CategoryID,
		Price:          *req.Price,
		Discount:       req.Discount,
		Stock:          req.Stock,
		Specifications: req.Specifications,
	}
	created, err := h.useCase.CreateProduct(c.Request.Context(), product)
	if err != nil {
		h.log.Warnf("Failed to create product '%s': %v", req.Name, err)
		failWith(c, "Failed to create product", err)
		return
	}

	h.log.Infof("Product created successfully: ID %d, Name %s", created.ID, created.Name)
	SuccessResponse(c, http.StatusCreated, "Product created successfully", created)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "product")
	if !ok {
		return
	}

	product, err := h.useCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get product by ID %d: %v", id, err)
		failWith(c, "Failed to retrieve product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

// UpdateProduct applies a partial update. An explicit "discount": null
// removes the discount.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "product")
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var raw map[string]json.RawMessage
	var req updateProductRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		h.log.Warnf("Failed to decode JSON for update product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(raw) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: no fields provided for update")
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Warnf("Failed to decode JSON for update product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	update := domain.ProductUpdate{
		Name:           req.Name,
		Description:    req.Description,
		Brand:          req.Brand,
		Image:          req.Image,
		CategoryID:     req.CategoryID,
		Price:          req.Price,
		Discount:       req.Discount,
		Stock:          req.Stock,
		Specifications: req.Specifications,
	}
	if d, present := raw["discount"]; present && bytes.Equal(bytes.TrimSpace(d), []byte("null")) {
		update.ClearDiscount = true
	}
	if update.Empty() {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: no known fields provided for update")
		return
	}

	updated, err := h.useCase.UpdateProduct(c.Request.Context(), id, update)
	if err != nil {
		h.log.Warnf("Failed to update product ID %d: %v", id, err)
		failWith(c, "Failed to update product", err)
		return
	}

	h.log.Infof("Product updated successfully: ID %d", updated.ID)
	SuccessResponse(c, http.StatusOK, "Product updated successfully", updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "product")
	if !ok {
		return
	}

	if err := h.useCase.DeleteProduct(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete product ID %d: %v", id, err)
		failWith(c, "Failed to delete product", err)
		return
	}

	h.log.Infof("Product deleted successfully: ID %d", id)
	SuccessResponse(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filter domain.ProductFilter
	var err error

	if filter.Limit, err = queryInt(c, "limit", domain.DefaultPageLimit); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid offset parameter")
		return
	}
	if filter.CategoryID, err = queryInt(c, "category_id", 0); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
		return
	}
	filter.Brand = c.Query("brand")
	for name, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" parameter")
			return
		}
		*dst = &v
	}

	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.log.Warnf("Failed to list products: %v", err)
		failWith(c, "Failed to retrieve products", err)
		return
	}

	if len(products) == 0 {
		SuccessResponse(c, http.StatusOK, "No products found matching criteria", []domain.Product{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) ListBrands(c *gin.Context) {
	brands, err := h.useCase.ListBrands(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list brands: %v", err)
		failWith(c, "Failed to retrieve brands", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Brands retrieved successfully", brands)
}
