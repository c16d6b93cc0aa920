package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"shop_service/internal/domain"
)

type categoryRepo struct {
	base
}

func nameTaken(st *state, name string, exceptID int) bool {
	for id, c := range st.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *categoryRepo) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	err := r.write(func(st *state) error {
		if nameTaken(st, category.Name, 0) {
			return fmt.Errorf("category with name '%s': %w", category.Name, domain.ErrAlreadyExists)
		}
		category.ID = st.nextID()
		st.categories[category.ID] = *category
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := *category
	return &created, nil
}

func (r *categoryRepo) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	var found domain.Category
	err := r.read(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *categoryRepo) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	err := r.write(func(st *state) error {
		if _, ok := st.categories[category.ID]; !ok {
			return fmt.Errorf("category with id %d not found for update: %w", category.ID, domain.ErrNotFound)
		}
		if nameTaken(st, category.Name, category.ID) {
			return fmt.Errorf("category with name '%s': %w", category.Name, domain.ErrAlreadyExists)
		}
		st.categories[category.ID] = *category
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated := *category
	return &updated, nil
}

// DeleteCategory cascades to the category's products and their cart lines.
func (r *categoryRepo) DeleteCategory(ctx context.Context, id int) error {
	return r.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return fmt.Errorf("category with id %d not found for deletion: %w", id, domain.ErrNotFound)
		}
		delete(st.categories, id)
		for pid, p := range st.products {
			if p.CategoryID == id {
				deleteProduct(st, pid)
			}
		}
		return nil
	})
}

func (r *categoryRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := r.read(func(st *state) error {
		for _, id := range slices.Sorted(maps.Keys(st.categories)) {
			categories = append(categories, st.categories[id])
		}
		return nil
	})
	return categories, err
}
