package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop_service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductUseCase interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	ListBrands(ctx context.Context) ([]string, error)
}

type productUseCase struct {
	store domain.DataStore
	log   *logrus.Logger
}

func NewProductUseCase(store domain.DataStore, logger *logrus.Logger) ProductUseCase {
	return &productUseCase{
		store: store,
		log:   logger,
	}
}

// maxPrice is the largest value the NUMERIC(10,2) price column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// hasCents reports whether d needs no more than two decimal places, which is
// what the price and discount columns store.
func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func checkPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return invalid("product price cannot be negative")
	}
	if price.GreaterThan(maxPrice) {
		return invalid("product price cannot exceed %s", maxPrice)
	}
	if !hasCents(price) {
		return invalid("product price %s has more than 2 decimal places", price)
	}
	return nil
}

func checkDiscount(discount decimal.NullDecimal) error {
	if !domain.ValidDiscount(discount) {
		return invalid("product discount must be between 0 and 100")
	}
	if discount.Valid && !hasCents(discount.Decimal) {
		return invalid("product discount %s has more than 2 decimal places", discount.Decimal)
	}
	return nil
}

func validatePrice(price decimal.Decimal, discount decimal.NullDecimal) error {
	if err := checkPrice(price); err != nil {
		return err
	}
	return checkDiscount(discount)
}

func (uc *productUseCase) ensureCategory(ctx context.Context, store domain.Store, categoryID int) error {
	if categoryID == 0 {
		return nil
	}
	if categoryID < 0 {
		return invalid("invalid category ID %d", categoryID)
	}
	if _, err := store.Categories().GetCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warnf("Use Case: Category ID %d not found for product", categoryID)
			return invalid("category with id %d does not exist", categoryID)
		}
		return err
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		uc.log.Warn("Use Case: Attempted to create product with empty name")
		return nil, invalid("product name cannot be empty")
	}
	if err := validatePrice(product.Price, product.Discount); err != nil {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with invalid pricing: %v", product.Name, err)
		return nil, err
	}
	if product.Stock < 0 {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with negative stock: %d", product.Name, product.Stock)
		return nil, invalid("product stock cannot be negative")
	}
	if err := uc.ensureCategory(ctx, uc.store, product.CategoryID); err != nil {
		return nil, err
	}
	if product.Specifications == nil {
		product.Specifications = map[string]any{}
	}
	product.ApplyPricing()

	uc.log.Infof("Use Case: Attempting to create product '%s'", product.Name)
	created, err := uc.store.Products().CreateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", product.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product '%s' created successfully with ID %d", created.Name, created.ID)
	return created, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, invalid("invalid product ID")
	}

	product, err := uc.store.Products().GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	return product, nil
}

func validateUpdate(update domain.ProductUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return invalid("product name cannot be empty if provided for update")
	}
	if update.Price != nil {
		if err := checkPrice(*update.Price); err != nil {
			return err
		}
	}
	if update.Discount != nil {
		if err := checkDiscount(decimal.NewNullDecimal(*update.Discount)); err != nil {
			return err
		}
	}
	if update.Stock != nil && *update.Stock < 0 {
		return invalid("product stock cannot be negative")
	}
	return nil
}

// UpdateProduct applies a partial update under the product's row lock so the
// derived discounted price is always computed from the committed price and
// discount.
func (uc *productUseCase) UpdateProduct(ctx context.Context, id int, update domain.ProductUpdate) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid product ID: %d", id)
		return nil, invalid("invalid product ID for update")
	}
	if err := validateUpdate(update); err != nil {
		uc.log.Warnf("Use Case: Rejected update for product ID %d: %v", id, err)
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	// derived field, never taken from the caller
	update.PriceAfterDiscount = nil

	var updated *domain.Product
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Products().GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if update.CategoryID != nil {
			if err := uc.ensureCategory(ctx, tx, *update.CategoryID); err != nil {
				return err
			}
		}
		if update.TouchesPricing() {
			next := *current
			if update.Price != nil {
				next.Price = *update.Price
			}
			switch {
			case update.ClearDiscount:
				next.Discount = decimal.NullDecimal{}
			case update.Discount != nil:
				next.Discount = decimal.NewNullDecimal(*update.Discount)
			}
			next.ApplyPricing()
			update.PriceAfterDiscount = &next.PriceAfterDiscount
		}

		updated, err = tx.Products().UpdateProduct(ctx, id, update)
		return err
	})
	if err != nil {
		uc.log.Warnf("Use Case: Failed to update product ID %d: %v", id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product ID %d updated successfully", id)
	return updated, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid product ID: %d", id)
		return invalid("invalid product ID for delete")
	}

	if err := uc.store.Products().DeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %d: %v", id, err)
		return err
	}

	uc.log.Infof("Use Case: Product deleted successfully for ID %d", id)
	return nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		uc.log.Warnf("Use Case: Invalid pagination parameters: limit=%d, offset=%d", filter.Limit, filter.Offset)
		return nil, invalid("limit and offset must be non-negative")
	}
	if filter.CategoryID < 0 {
		return nil, invalid("invalid category ID %d", filter.CategoryID)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, invalid("min_price cannot exceed max_price")
	}
	filter.Normalize()

	products, err := uc.store.Products().ListProducts(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}

	uc.log.Infof("Use Case: Retrieved %d products", len(products))
	return products, nil
}

func (uc *productUseCase) ListBrands(ctx context.Context) ([]string, error) {
	brands, err := uc.store.Products().ListBrands(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list brands: %v", err)
		return nil, fmt.Errorf("could not retrieve brands: %w", err)
	}
	return brands, nil
}
