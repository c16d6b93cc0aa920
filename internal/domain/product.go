package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Brand              string              `json:"brand"`
	Image              string              `json:"image"`
	CategoryID         int                 `json:"category_id"`
	Price              decimal.Decimal     `json:"price"`
	Discount           decimal.NullDecimal `json:"discount"`
	PriceAfterDiscount decimal.Decimal     `json:"price_after_discount"`
	Stock              int                 `json:"stock"`
	Specifications     map[string]any      `json:"specifications"`
	CreatedAt          time.Time           `json:"created_at"`
}

// ApplyPricing recomputes PriceAfterDiscount. It must run after every change
// to Price or Discount.
func (p *Product) ApplyPricing() {
	p.PriceAfterDiscount = DiscountedPrice(p.Price, p.Discount)
}

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ProductUpdate carries a partial update; nil fields are left alone.
// ClearDiscount removes the discount and wins over Discount.
type ProductUpdate struct {
	Name               *string
	Description        *string
	Brand              *string
	Image              *string
	CategoryID         *int
	Price              *decimal.Decimal
	Discount           *decimal.Decimal
	ClearDiscount      bool
	PriceAfterDiscount *decimal.Decimal
	Stock              *int
	Specifications     map[string]any
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Brand == nil && u.Image == nil &&
		u.CategoryID == nil && u.Price == nil && u.Discount == nil && !u.ClearDiscount &&
		u.PriceAfterDiscount == nil && u.Stock == nil && u.Specifications == nil
}

// TouchesPricing reports whether the update changes an input of the pricing engine.
func (u ProductUpdate) TouchesPricing() bool {
	return u.Price != nil || u.Discount != nil || u.ClearDiscount
}

type ProductFilter struct {
	CategoryID int
	Brand      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Limit      int
	Offset     int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps pagination to the supported window.
func (f *ProductFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int) (*Product, error)
	// GetProductForUpdate reads the product and holds its row lock until the
	// surrounding transaction ends.
	GetProductForUpdate(ctx context.Context, id int) (*Product, error)
	UpdateProduct(ctx context.Context, id int, update ProductUpdate) (*Product, error)
	// AdjustStock adds delta to the stock and returns the new value. It fails
	// with ErrInsufficientStock instead of letting stock drop below zero.
	AdjustStock(ctx context.Context, id int, delta int) (int, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListBrands(ctx context.Context) ([]string, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id int) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]Category, error)
}
