package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresCategoryRepository struct {
	db  dbtx
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db dbtx, logger *logrus.Logger) domain.CategoryRepository {
	return &postgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `INSERT INTO categories (name, image) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, category.Name, category.Image).Scan(&category.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to create category with duplicate name: %s", category.Name)
			return nil, fmt.Errorf("category with name '%s': %w", category.Name, domain.ErrAlreadyExists)
		}
		r.log.Errorf("Repository: Failed to create category '%s': %v", category.Name, err)
		return nil, fmt.Errorf("could not create category: %w", err)
	}
	r.log.Infof("Repository: Category created successfully with ID: %d, Name: %s", category.ID, category.Name)
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	query := `SELECT id, name, image FROM categories WHERE id = $1`
	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with ID %d not found", id)
			return nil, fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get category by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get category by id: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `UPDATE categories SET name = $1, image = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, category.Name, category.Image, category.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to rename category ID %d to duplicate name: %s", category.ID, category.Name)
			return nil, fmt.Errorf("category with name '%s': %w", category.Name, domain.ErrAlreadyExists)
		}
		r.log.Errorf("Repository: Failed to update category ID %d: %v", category.ID, err)
		return nil, fmt.Errorf("could not update category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not confirm category update: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to update non-existent category ID %d", category.ID)
		return nil, fmt.Errorf("category with id %d not found for update: %w", category.ID, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Category updated successfully for ID: %d", category.ID)
	return category, nil
}

// DeleteCategory relies on ON DELETE CASCADE to drop the category's products
// and their cart lines.
func (r *postgresCategoryRepository) DeleteCategory(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete category ID %d: %v", id, err)
		return fmt.Errorf("could not delete category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting category ID %d: %v", id, err)
		return fmt.Errorf("could not confirm category deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent category ID %d", id)
		return fmt.Errorf("category with id %d not found for deletion: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Category deleted successfully with ID: %d", id)
	return nil
}

func (r *postgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, image FROM categories ORDER BY id ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			r.log.Errorf("Repository: Failed to scan category row: %v", err)
			return nil, fmt.Errorf("error scanning category data: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during categories list iteration: %v", err)
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	r.log.Infof("Repository: Retrieved %d categories", len(categories))
	return categories, nil
}
