package usecase

import (
	"context"
	"testing"

	"shop_service/internal/domain"
	"shop_service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductFixture(t *testing.T) (*memory.Store, ProductUseCase) {
	t.Helper()
	logger := quietLogger()
	store := memory.NewStore(logger)
	return store, NewProductUseCase(store, logger)
}

func TestCreateProductComputesDiscountedPrice(t *testing.T) {
	_, uc := newProductFixture(t)

	created, err := uc.CreateProduct(context.Background(), &domain.Product{
		Name:     "  Phone ",
		Price:    mustDecimal(t, "9.99"),
		Discount: decimal.NewNullDecimal(mustDecimal(t, "15")),
		Stock:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Phone", created.Name)
	assert.Equal(t, "8.49", created.PriceAfterDiscount.StringFixed(2))
	assert.NotNil(t, created.Specifications)
}

func TestCreateProductValidation(t *testing.T) {
	cases := []struct {
		name    string
		product domain.Product
	}{
		{name: "empty name", product: domain.Product{Name: " ", Price: decimal.NewFromInt(1)}},
		{name: "negative price", product: domain.Product{Name: "P", Price: decimal.NewFromInt(-1)}},
		{name: "discount above 100", product: domain.Product{Name: "P", Price: decimal.NewFromInt(1), Discount: decimal.NewNullDecimal(decimal.NewFromInt(101))}},
		{name: "negative stock", product: domain.Product{Name: "P", Price: decimal.NewFromInt(1), Stock: -1}},
		{name: "missing category", product: domain.Product{Name: "P", Price: decimal.NewFromInt(1), CategoryID: 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, uc := newProductFixture(t)
			p := tc.product
			_, err := uc.CreateProduct(context.Background(), &p)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestUpdateProductRecomputesPricing(t *testing.T) {
	ctx := context.Background()
	_, uc := newProductFixture(t)
	created, err := uc.CreateProduct(ctx, &domain.Product{
		Name:     "P",
		Price:    decimal.NewFromInt(100),
		Discount: decimal.NewNullDecimal(decimal.NewFromInt(20)),
	})
	require.NoError(t, err)

	price := decimal.NewFromInt(50)
	forged := decimal.NewFromInt(1)
	updated, err := uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{Price: &price, PriceAfterDiscount: &forged})
	require.NoError(t, err)
	assert.Equal(t, "40.00", updated.PriceAfterDiscount.StringFixed(2))

	updated, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{ClearDiscount: true})
	require.NoError(t, err)
	assert.False(t, updated.Discount.Valid)
	assert.Equal(t, "50.00", updated.PriceAfterDiscount.StringFixed(2))

	stock := 7
	updated, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "50.00", updated.PriceAfterDiscount.StringFixed(2))
}

func TestUpdateProductRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, uc := newProductFixture(t)
	created, err := uc.CreateProduct(ctx, &domain.Product{Name: "P", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	discount := decimal.NewFromInt(-5)
	_, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{Discount: &discount})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	category := 99
	_, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{CategoryID: &category})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	name := "x"
	_, err = uc.UpdateProduct(ctx, created.ID+1, domain.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProductsValidatesFilter(t *testing.T) {
	ctx := context.Background()
	_, uc := newProductFixture(t)

	min, max := decimal.NewFromInt(10), decimal.NewFromInt(5)
	_, err := uc.ListProducts(ctx, domain.ProductFilter{MinPrice: &min, MaxPrice: &max})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = uc.ListProducts(ctx, domain.ProductFilter{Offset: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	products, err := uc.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	logger := quietLogger()
	store := memory.NewStore(logger)
	categories := NewCategoryUseCase(store.Categories(), logger)

	_, err := categories.CreateCategory(ctx, &domain.Category{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	created, err := categories.CreateCategory(ctx, &domain.Category{Name: " Laptops "})
	require.NoError(t, err)
	assert.Equal(t, "Laptops", created.Name)

	_, err = categories.CreateCategory(ctx, &domain.Category{Name: "laptops"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	list, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, categories.DeleteCategory(ctx, created.ID))
	_, err = categories.GetCategoryByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPricingInputsLimitedToCents(t *testing.T) {
	ctx := context.Background()
	_, uc := newProductFixture(t)

	_, err := uc.CreateProduct(ctx, &domain.Product{Name: "P", Price: mustDecimal(t, "10.005"), Discount: decimal.NewNullDecimal(decimal.NewFromInt(10))})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = uc.CreateProduct(ctx, &domain.Product{Name: "P", Price: decimal.NewFromInt(10), Discount: decimal.NewNullDecimal(mustDecimal(t, "12.345"))})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = uc.CreateProduct(ctx, &domain.Product{Name: "P", Price: mustDecimal(t, "100000000")})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	created, err := uc.CreateProduct(ctx, &domain.Product{Name: "P", Price: mustDecimal(t, "10.010"), Discount: decimal.NewNullDecimal(mustDecimal(t, "12.50"))})
	require.NoError(t, err)
	want := created.Price.Sub(created.Discount.Decimal.Div(decimal.NewFromInt(100)).Mul(created.Price)).Round(2)
	assert.True(t, want.Equal(created.PriceAfterDiscount), "got %s want %s", created.PriceAfterDiscount, want)

	price := mustDecimal(t, "1.999")
	_, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	discount := mustDecimal(t, "0.001")
	_, err = uc.UpdateProduct(ctx, created.ID, domain.ProductUpdate{Discount: &discount})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
