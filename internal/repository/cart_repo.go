package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresCartRepository struct {
	db  dbtx
	log *logrus.Logger
}

func NewPostgresCartRepository(db dbtx, logger *logrus.Logger) domain.CartRepository {
	return &postgresCartRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCartRepository) GetOrCreateCart(ctx context.Context, userID int) (*domain.Cart, error) {
	insert := `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, userID); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to ensure cart for user %d: %v", userID, err)
		return nil, fmt.Errorf("could not create cart: %w", err)
	}

	cart := &domain.Cart{}
	query := `SELECT id, user_id, created_at FROM carts WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt); err != nil {
		r.log.Errorf("Repository: Failed to load cart for user %d: %v", userID, err)
		return nil, fmt.Errorf("could not get cart: %w", err)
	}
	return cart, nil
}

func (r *postgresCartRepository) ListItems(ctx context.Context, cartID int) ([]domain.CartItem, error) {
	query := `
        SELECT ci.id, ci.cart_id, ci.product_id, p.name, ci.quantity, ci.price
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.cart_id = $1
        ORDER BY ci.id ASC`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		r.log.Errorf("Repository: Failed to list items of cart %d: %v", cartID, err)
		return nil, fmt.Errorf("could not list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			r.log.Errorf("Repository: Failed to scan cart item row: %v", err)
			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

func (r *postgresCartRepository) scanItem(row *sql.Row, notFound string) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", notFound, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to read cart item (%s): %v", notFound, err)
		return nil, fmt.Errorf("could not get cart item: %w", err)
	}
	return item, nil
}

func (r *postgresCartRepository) FindItemByProduct(ctx context.Context, cartID, productID int) (*domain.CartItem, error) {
	query := `
        SELECT id, cart_id, product_id, quantity, price
        FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	return r.scanItem(r.db.QueryRowContext(ctx, query, cartID, productID),
		fmt.Sprintf("cart %d has no line for product %d", cartID, productID))
}

func (r *postgresCartRepository) GetItem(ctx context.Context, userID, itemID int) (*domain.CartItem, error) {
	query := `
        SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price
        FROM cart_items ci
        JOIN carts c ON c.id = ci.cart_id
        WHERE ci.id = $1 AND c.user_id = $2`
	return r.scanItem(r.db.QueryRowContext(ctx, query, itemID, userID),
		fmt.Sprintf("cart item %d", itemID))
}

func (r *postgresCartRepository) CreateItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	query := `
        INSERT INTO cart_items (cart_id, product_id, quantity, price)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	err := r.db.QueryRowContext(ctx, query, item.CartID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return nil, fmt.Errorf("cart %d already has a line for product %d: %w", item.CartID, item.ProductID, domain.ErrAlreadyExists)
		case pqForeignKeyViolation:
			return nil, fmt.Errorf("cart %d or product %d: %w", item.CartID, item.ProductID, domain.ErrNotFound)
		case pqCheckViolation:
			return nil, fmt.Errorf("cart item quantity %d: %w", item.Quantity, domain.ErrInvalidArgument)
		}
		r.log.Errorf("Repository: Failed to create cart item in cart %d: %v", item.CartID, err)
		return nil, fmt.Errorf("could not create cart item: %w", err)
	}
	r.log.Infof("Repository: Cart item %d created in cart %d for product %d", item.ID, item.CartID, item.ProductID)
	return item, nil
}

func (r *postgresCartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	query := `UPDATE cart_items SET quantity = $1, price = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, item.Quantity, item.Price, item.ID)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return fmt.Errorf("cart item quantity %d: %w", item.Quantity, domain.ErrInvalidArgument)
		}
		r.log.Errorf("Repository: Failed to update cart item %d: %v", item.ID, err)
		return fmt.Errorf("could not update cart item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm cart item update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("cart item %d not found for update: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *postgresCartRepository) DeleteItem(ctx context.Context, itemID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete cart item %d: %v", itemID, err)
		return fmt.Errorf("could not delete cart item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm cart item deletion: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("cart item %d not found for deletion: %w", itemID, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Cart item %d deleted", itemID)
	return nil
}
