package delivery

import (
	"net/http"

	"shop_service/internal/domain"
	"shop_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	useCase usecase.CategoryUseCase
	log     *logrus.Logger
}

func NewCategoryHandler(uc usecase.CategoryUseCase, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(public, admin gin.IRouter) {
	public.GET("/categories", h.ListCategories)
	public.GET("/categories/:id", h.GetCategoryByID)

	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
}

type categoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Image string `json:"image"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for create category: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.useCase.CreateCategory(c.Request.Context(), &domain.Category{Name: req.Name, Image: req.Image})
	if err != nil {
		h.log.Warnf("Failed to create category '%s': %v", req.Name, err)
		failWith(c, "Failed to create category", err)
		return
	}

	h.log.Infof("Category created successfully: ID %d, Name %s", created.ID, created.Name)
	SuccessResponse(c, http.StatusCreated, "Category created successfully", created)
}

func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "category")
	if !ok {
		return
	}

	category, err := h.useCase.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get category by ID %d: %v", id, err)
		failWith(c, "Failed to retrieve category", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "category")
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for update category ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.useCase.UpdateCategory(c.Request.Context(), &domain.Category{ID: id, Name: req.Name, Image: req.Image})
	if err != nil {
		h.log.Warnf("Failed to update category ID %d: %v", id, err)
		failWith(c, "Failed to update category", err)
		return
	}

	h.log.Infof("Category updated successfully: ID %d", updated.ID)
	SuccessResponse(c, http.StatusOK, "Category updated successfully", updated)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, h.log, "id", "category")
	if !ok {
		return
	}

	if err := h.useCase.DeleteCategory(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete category ID %d: %v", id, err)
		failWith(c, "Failed to delete category", err)
		return
	}

	h.log.Infof("Category deleted successfully: ID %d", id)
	SuccessResponse(c, http.StatusOK, "Category deleted successfully", nil)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list categories: %v", err)
		failWith(c, "Failed to retrieve categories", err)
		return
	}

	if len(categories) == 0 {
		SuccessResponse(c, http.StatusOK, "No categories found", []domain.Category{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}
