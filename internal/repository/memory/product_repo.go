package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"

	"shop_service/internal/domain"
)

type productRepo struct {
	base
}

func copyProduct(p domain.Product) *domain.Product {
	p.Specifications = maps.Clone(p.Specifications)
	return &p
}

func (r *productRepo) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var created *domain.Product
	err := r.write(func(st *state) error {
		if product.CategoryID != 0 {
			if _, ok := st.categories[product.CategoryID]; !ok {
				return fmt.Errorf("category with id %d does not exist: %w", product.CategoryID, domain.ErrInvalidArgument)
			}
		}
		p := *copyProduct(*product)
		p.ID = st.nextID()
		p.CreatedAt = r.store.now()
		st.products[p.ID] = p
		created = copyProduct(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	*product = *created
	return created, nil
}

func (r *productRepo) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	var found *domain.Product
	err := r.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
		found = copyProduct(p)
		return nil
	})
	return found, err
}

// GetProductForUpdate needs no extra locking: transactions already hold the
// store lock for their whole lifetime.
func (r *productRepo) GetProductForUpdate(ctx context.Context, id int) (*domain.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r *productRepo) UpdateProduct(ctx context.Context, id int, update domain.ProductUpdate) (*domain.Product, error) {
	var updated *domain.Product
	err := r.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("product with id %d not found for update: %w", id, domain.ErrNotFound)
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.Brand != nil {
			p.Brand = *update.Brand
		}
		if update.Image != nil {
			p.Image = *update.Image
		}
		if update.CategoryID != nil {
			if *update.CategoryID != 0 {
				if _, ok := st.categories[*update.CategoryID]; !ok {
					return fmt.Errorf("category with id %d does not exist: %w", *update.CategoryID, domain.ErrInvalidArgument)
				}
			}
			p.CategoryID = *update.CategoryID
		}
		if update.Price != nil {
			p.Price = *update.Price
		}
		if update.Discount != nil {
			p.Discount.Decimal = *update.Discount
			p.Discount.Valid = true
		}
		if update.ClearDiscount {
			p.Discount.Valid = false
		}
		if update.PriceAfterDiscount != nil {
			p.PriceAfterDiscount = *update.PriceAfterDiscount
		}
		if update.Stock != nil {
			p.Stock = *update.Stock
		}
		if update.Specifications != nil {
			p.Specifications = maps.Clone(update.Specifications)
		}
		st.products[id] = p
		updated = copyProduct(p)
		return nil
	})
	return updated, err
}

func (r *productRepo) AdjustStock(ctx context.Context, id int, delta int) (int, error) {
	var stock int
	err := r.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
		if p.Stock+delta < 0 {
			return fmt.Errorf("product %d has %d in stock, adjustment %d: %w", id, p.Stock, delta, domain.ErrInsufficientStock)
		}
		p.Stock += delta
		st.products[id] = p
		stock = p.Stock
		return nil
	})
	return stock, err
}

func (r *productRepo) DeleteProduct(ctx context.Context, id int) error {
	return r.write(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return fmt.Errorf("product with id %d not found for deletion: %w", id, domain.ErrNotFound)
		}
		deleteProduct(st, id)
		return nil
	})
}

// deleteProduct removes the product and the cart lines that reference it.
func deleteProduct(st *state, id int) {
	delete(st.products, id)
	for itemID, item := range st.items {
		if item.ProductID == id {
			delete(st.items, itemID)
		}
	}
}

func (r *productRepo) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Normalize()
	products := []domain.Product{}
	err := r.read(func(st *state) error {
		ids := slices.Sorted(maps.Keys(st.products))
		skipped := 0
		for _, id := range ids {
			p := st.products[id]
			if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
				continue
			}
			if filter.Brand != "" && p.Brand != filter.Brand {
				continue
			}
			if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
				continue
			}
			if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			products = append(products, *copyProduct(p))
			if len(products) == filter.Limit {
				break
			}
		}
		return nil
	})
	return products, err
}

func (r *productRepo) ListBrands(ctx context.Context) ([]string, error) {
	brands := []string{}
	err := r.read(func(st *state) error {
		seen := map[string]struct{}{}
		for _, p := range st.products {
			if p.Brand == "" {
				continue
			}
			if _, ok := seen[p.Brand]; ok {
				continue
			}
			seen[p.Brand] = struct{}{}
			brands = append(brands, p.Brand)
		}
		sort.Strings(brands)
		return nil
	})
	return brands, err
}
