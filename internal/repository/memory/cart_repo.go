package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"shop_service/internal/domain"
)

type cartRepo struct {
	base
}

func (r *cartRepo) GetOrCreateCart(ctx context.Context, userID int) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.write(func(st *state) error {
		if id, ok := st.cartByUser[userID]; ok {
			cart = st.carts[id]
			return nil
		}
		cart = domain.Cart{
			ID:        st.nextID(),
			UserID:    userID,
			CreatedAt: r.store.now(),
		}
		st.carts[cart.ID] = cart
		st.cartByUser[userID] = cart.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) ListItems(ctx context.Context, cartID int) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	err := r.read(func(st *state) error {
		for _, id := range slices.Sorted(maps.Keys(st.items)) {
			item := st.items[id]
			if item.CartID != cartID {
				continue
			}
			if p, ok := st.products[item.ProductID]; ok {
				item.ProductName = p.Name
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

func (r *cartRepo) FindItemByProduct(ctx context.Context, cartID, productID int) (*domain.CartItem, error) {
	var found domain.CartItem
	err := r.read(func(st *state) error {
		for _, item := range st.items {
			if item.CartID == cartID && item.ProductID == productID {
				found = item
				return nil
			}
		}
		return fmt.Errorf("cart %d has no line for product %d: %w", cartID, productID, domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *cartRepo) GetItem(ctx context.Context, userID, itemID int) (*domain.CartItem, error) {
	var found domain.CartItem
	err := r.read(func(st *state) error {
		item, ok := st.items[itemID]
		if !ok || st.cartByUser[userID] != item.CartID {
			return fmt.Errorf("cart item %d: %w", itemID, domain.ErrNotFound)
		}
		found = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	err := r.write(func(st *state) error {
		if _, ok := st.carts[item.CartID]; !ok {
			return fmt.Errorf("cart %d: %w", item.CartID, domain.ErrNotFound)
		}
		for _, existing := range st.items {
			if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
				return fmt.Errorf("cart %d already has a line for product %d: %w", item.CartID, item.ProductID, domain.ErrAlreadyExists)
			}
		}
		item.ID = st.nextID()
		stored := *item
		stored.ProductName = ""
		st.items[item.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := *item
	return &created, nil
}

func (r *cartRepo) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	return r.write(func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok {
			return fmt.Errorf("cart item %d not found for update: %w", item.ID, domain.ErrNotFound)
		}
		existing.Quantity = item.Quantity
		existing.Price = item.Price
		st.items[item.ID] = existing
		return nil
	})
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID int) error {
	return r.write(func(st *state) error {
		if _, ok := st.items[itemID]; !ok {
			return fmt.Errorf("cart item %d not found for deletion: %w", itemID, domain.ErrNotFound)
		}
		delete(st.items, itemID)
		return nil
	})
}
