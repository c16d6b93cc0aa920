package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int             `json:"id"`
	UserID    int             `json:"user_id"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type CartItem struct {
	ID          int                 `json:"id"`
	CartID      int                 `json:"cart_id"`
	ProductID   int                 `json:"product_id"`
	ProductName string              `json:"product_name,omitempty"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.NullDecimal `json:"price"`
}

// LineTotal is the snapshotted unit price times quantity; zero while no price
// has been recorded.
func (i CartItem) LineTotal() decimal.Decimal {
	if !i.Price.Valid {
		return decimal.Zero
	}
	return i.Price.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the line totals into Total.
func (c *Cart) ComputeTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	c.Total = total
}

// ZeroQuantityPolicy decides what a quantity update to zero means.
type ZeroQuantityPolicy int

const (
	// ZeroQuantityReject treats any quantity below one as an invalid argument.
	ZeroQuantityReject ZeroQuantityPolicy = iota
	// ZeroQuantityRemove removes the line when the new quantity is exactly zero.
	ZeroQuantityRemove
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID int) (*Cart, error)
	ListItems(ctx context.Context, cartID int) ([]CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID int) (*CartItem, error)
	// GetItem resolves an item only if it belongs to userID's cart.
	GetItem(ctx context.Context, userID, itemID int) (*CartItem, error)
	CreateItem(ctx context.Context, item *CartItem) (*CartItem, error)
	UpdateItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, itemID int) error
}
