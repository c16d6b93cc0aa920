package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shop_service/internal/domain"
	"shop_service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newCartFixture(t *testing.T) (*memory.Store, *recordingPublisher, CartUseCase) {
	t.Helper()
	logger := quietLogger()
	store := memory.NewStore(logger)
	pub := &recordingPublisher{}
	return store, pub, NewCartUseCase(store, pub, logger)
}

func TestAddItemSnapshotsDiscountedPrice(t *testing.T) {
	ctx := context.Background()
	store, pub, uc := newCartFixture(t)
	p := seedProduct(t, store, "100.00", "20", 10)

	cart, err := uc.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, 2, item.Quantity)
	require.True(t, item.Price.Valid)
	assert.Equal(t, "80", item.Price.Decimal.String())
	assert.Equal(t, "160", cart.Total.String())
	assert.Equal(t, 8, stockOf(t, store, p.ID))

	events := pub.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, domain.StockChanged{
		ProductID:  p.ID,
		Delta:      -2,
		Stock:      8,
		Reason:     domain.StockReasonCartAdd,
		UserID:     1,
		CartItemID: item.ID,
	}, events[0])
}

func TestAddItemMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 10)

	_, err := uc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	cart, err := uc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 6, cart.Items[0].Quantity)
	assert.Equal(t, 4, stockOf(t, store, p.ID))
}

func TestAddItemRefreshesPriceOnMerge(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "10", "", 10)

	_, err := uc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	discount := mustDecimal(t, "50")
	_, err = store.Products().UpdateProduct(ctx, p.ID, domain.ProductUpdate{Discount: &discount})
	require.NoError(t, err)

	cart, err := uc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "5", cart.Items[0].Price.Decimal.String())
}

func TestAddItemInsufficientStockChangesNothing(t *testing.T) {
	ctx := context.Background()
	store, pub, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 2)

	_, err := uc.AddItem(ctx, 1, p.ID, 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 2, stockOf(t, store, p.ID))
	cart, err := uc.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Empty(t, pub.recorded())
}

func TestAddItemValidation(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 2)

	_, err := uc.AddItem(ctx, 1, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = uc.AddItem(ctx, 1, p.ID+100, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.AddItem(ctx, 0, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAddThenRemoveRestoresStock(t *testing.T) {
	ctx := context.Background()
	store, pub, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 7)

	cart, err := uc.AddItem(ctx, 1, p.ID, 4)
	require.NoError(t, err)
	require.NoError(t, uc.RemoveItem(ctx, 1, cart.Items[0].ID))

	assert.Equal(t, 7, stockOf(t, store, p.ID))
	cart, err = uc.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	events := pub.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, domain.StockReasonCartRemove, events[1].Reason)
	assert.Equal(t, 4, events[1].Delta)
	assert.Equal(t, 7, events[1].Stock)
}

func TestUpdateItemQuantityAdjustsStockByDifference(t *testing.T) {
	cases := []struct {
		name      string
		from, to  int
		wantStock int
		wantEvent bool
	}{
		{name: "decrease", from: 5, to: 2, wantStock: 8, wantEvent: true},
		{name: "increase", from: 2, to: 5, wantStock: 5, wantEvent: true},
		{name: "unchanged", from: 5, to: 5, wantStock: 5, wantEvent: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store, pub, uc := newCartFixture(t)
			p := seedProduct(t, store, "5", "", 10)

			cart, err := uc.AddItem(ctx, 1, p.ID, tc.from)
			require.NoError(t, err)
			itemID := cart.Items[0].ID

			item, err := uc.UpdateItemQuantity(ctx, 1, itemID, tc.to, domain.ZeroQuantityReject)
			require.NoError(t, err)
			require.NotNil(t, item)
			assert.Equal(t, tc.to, item.Quantity)
			assert.Equal(t, tc.wantStock, stockOf(t, store, p.ID))

			events := pub.recorded()
			if tc.wantEvent {
				require.Len(t, events, 2)
				assert.Equal(t, tc.from-tc.to, events[1].Delta)
				assert.Equal(t, domain.StockReasonCartUpdate, events[1].Reason)
			} else {
				assert.Len(t, events, 1)
			}
		})
	}
}

func TestUpdateItemQuantityInsufficientStock(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 4)

	cart, err := uc.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = uc.UpdateItemQuantity(ctx, 1, itemID, 5, domain.ZeroQuantityReject)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 2, stockOf(t, store, p.ID))
	cart, err = uc.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestUpdateItemQuantityZeroPolicies(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 10)

	cart, err := uc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = uc.UpdateItemQuantity(ctx, 1, itemID, 0, domain.ZeroQuantityReject)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = uc.UpdateItemQuantity(ctx, 1, itemID, -1, domain.ZeroQuantityRemove)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 7, stockOf(t, store, p.ID))

	item, err := uc.UpdateItemQuantity(ctx, 1, itemID, 0, domain.ZeroQuantityRemove)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, 10, stockOf(t, store, p.ID))
}

func TestCartItemsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", 10)

	cart, err := uc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = uc.UpdateItemQuantity(ctx, 2, itemID, 1, domain.ZeroQuantityReject)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.RemoveItem(ctx, 2, itemID), domain.ErrNotFound)
	assert.Equal(t, 7, stockOf(t, store, p.ID))
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	store, pub, uc := newCartFixture(t)
	pub.err = errors.New("broker down")
	p := seedProduct(t, store, "5", "", 10)

	cart, err := uc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 9, stockOf(t, store, p.ID))
}

func TestConcurrentAddsNeverOversell(t *testing.T) {
	const buyers = 8
	ctx := context.Background()
	store, _, uc := newCartFixture(t)
	p := seedProduct(t, store, "5", "", buyers-1)

	var (
		mu       sync.Mutex
		failures []error
	)
	var g errgroup.Group
	for i := 1; i <= buyers; i++ {
		userID := i
		g.Go(func() error {
			if _, err := uc.AddItem(ctx, userID, p.ID, 1); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrInsufficientStock)
	assert.Equal(t, 0, stockOf(t, store, p.ID))
}
