package usecase

import (
	"context"
	"fmt"
	"strings"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewCategoryUseCase(repo domain.CategoryRepository, logger *logrus.Logger) CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: repo,
		log:          logger,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warn("Use Case: Attempted to create category with empty name")
		return nil, invalid("category name cannot be empty")
	}

	uc.log.Infof("Use Case: Attempting to create category with name '%s'", category.Name)
	created, err := uc.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", category.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category '%s' created successfully with ID %d", created.Name, created.ID)
	return created, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get category with invalid ID: %d", id)
		return nil, invalid("invalid category ID")
	}

	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get category ID %d: %v", id, err)
		return nil, err
	}
	return category, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid ID: %d", category.ID)
		return nil, invalid("invalid category ID for update")
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warnf("Use Case: Attempted update for ID %d with empty name", category.ID)
		return nil, invalid("category name cannot be empty for update")
	}

	updated, err := uc.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update category ID %d: %v", category.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category updated successfully for ID %d", updated.ID)
	return updated, nil
}

// DeleteCategory also removes the category's products.
func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid ID: %d", id)
		return invalid("invalid category ID for delete")
	}

	if err := uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %d: %v", id, err)
		return err
	}

	uc.log.Infof("Use Case: Category deleted successfully for ID %d", id)
	return nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, fmt.Errorf("could not retrieve categories: %w", err)
	}

	uc.log.Infof("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}
