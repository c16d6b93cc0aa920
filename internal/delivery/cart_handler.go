package delivery

import (
	"net/http"

	"shop_service/internal/domain"
	"shop_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	useCase usecase.CartUseCase
	log     *logrus.Logger
}

func NewCartHandler(uc usecase.CartUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		useCase: uc,
		log:     logger,
	}
}

// RegisterRoutes expects an authenticated router.
func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
}

type addItemRequest struct {
	ProductID int  `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity     *int `json:"quantity" binding:"required"`
	RemoveIfZero bool `json:"remove_if_zero"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID := currentUserID(c)
	cart, err := h.useCase.GetOrCreateCart(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("Failed to load cart for user %d: %v", userID, err)
		failWith(c, "Failed to retrieve cart", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID := currentUserID(c)
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for add cart item: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.useCase.AddItem(c.Request.Context(), userID, req.ProductID, quantity)
	if err != nil {
		h.log.Warnf("Failed to add product %d to cart of user %d: %v", req.ProductID, userID, err)
		failWith(c, "Failed to add item to cart", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Item added to cart", cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID := currentUserID(c)
	itemID, ok := pathID(c, h.log, "id", "cart item")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for update cart item %d: %v", itemID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	policy := domain.ZeroQuantityReject
	if req.RemoveIfZero {
		policy = domain.ZeroQuantityRemove
	}

	item, err := h.useCase.UpdateItemQuantity(c.Request.Context(), userID, itemID, *req.Quantity, policy)
	if err != nil {
		h.log.Warnf("Failed to update cart item %d of user %d: %v", itemID, userID, err)
		failWith(c, "Failed to update cart item", err)
		return
	}
	if item == nil {
		SuccessResponse(c, http.StatusOK, "Item removed from cart", nil)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart item updated", item)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := currentUserID(c)
	itemID, ok := pathID(c, h.log, "id", "cart item")
	if !ok {
		return
	}

	if err := h.useCase.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
		h.log.Warnf("Failed to remove cart item %d of user %d: %v", itemID, userID, err)
		failWith(c, "Failed to remove cart item", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Item removed from cart", nil)
}
