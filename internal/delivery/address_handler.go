package delivery

import (
	"net/http"

	"shop_service/internal/domain"
	"shop_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AddressHandler struct {
	useCase usecase.AddressUseCase
	log     *logrus.Logger
}

func NewAddressHandler(uc usecase.AddressUseCase, logger *logrus.Logger) *AddressHandler {
	return &AddressHandler{
		useCase: uc,
		log:     logger,
	}
}

// RegisterRoutes expects an authenticated router.
func (h *AddressHandler) RegisterRoutes(router gin.IRouter) {
	addresses := router.Group("/addresses")
	{
		addresses.GET("", h.ListAddresses)
		addresses.POST("", h.CreateAddress)
		addresses.GET("/:id", h.GetAddress)
		addresses.PUT("/:id", h.UpdateAddress)
		addresses.DELETE("/:id", h.DeleteAddress)
		addresses.POST("/:id/default", h.SetDefault)
	}
}

type addressRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

func (r addressRequest) toDomain(userID, id int) *domain.Address {
	return &domain.Address{
		ID:        id,
		UserID:    userID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		IsDefault: r.IsDefault,
	}
}

func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID := currentUserID(c)
	addresses, err := h.useCase.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("Failed to list addresses for user %d: %v", userID, err)
		failWith(c, "Failed to retrieve addresses", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Addresses retrieved successfully", addresses)
}

func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userID := currentUserID(c)
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for create address: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.useCase.CreateAddress(c.Request.Context(), req.toDomain(userID, 0))
	if err != nil {
		h.log.Warnf("Failed to create address for user %d: %v", userID, err)
		failWith(c, "Failed to create address", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Address created successfully", created)
}

func (h *AddressHandler) GetAddress(c *gin.Context) {
	userID := currentUserID(c)
	id, ok := pathID(c, h.log, "id", "address")
	if !ok {
		return
	}

	address, err := h.useCase.GetAddress(c.Request.Context(), userID, id)
	if err != nil {
		h.log.Warnf("Failed to get address %d for user %d: %v", id, userID, err)
		failWith(c, "Failed to retrieve address", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Address retrieved successfully", address)
}

func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userID := currentUserID(c)
	id, ok := pathID(c, h.log, "id", "address")
	if !ok {
		return
	}

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for update address %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.useCase.UpdateAddress(c.Request.Context(), req.toDomain(userID, id))
	if err != nil {
		h.log.Warnf("Failed to update address %d for user %d: %v", id, userID, err)
		failWith(c, "Failed to update address", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Address updated successfully", updated)
}

func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userID := currentUserID(c)
	id, ok := pathID(c, h.log, "id", "address")
	if !ok {
		return
	}

	if err := h.useCase.DeleteAddress(c.Request.Context(), userID, id); err != nil {
		h.log.Warnf("Failed to delete address %d for user %d: %v", id, userID, err)
		failWith(c, "Failed to delete address", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Address deleted successfully", nil)
}

func (h *AddressHandler) SetDefault(c *gin.Context) {
	userID := currentUserID(c)
	id, ok := pathID(c, h.log, "id", "address")
	if !ok {
		return
	}

	address, err := h.useCase.SetDefault(c.Request.Context(), userID, id)
	if err != nil {
		h.log.Warnf("Failed to set default address %d for user %d: %v", id, userID, err)
		failWith(c, "Failed to set default address", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Default address updated", address)
}
