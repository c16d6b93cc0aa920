package usecase

import (
	"context"
	"fmt"

	"shop_service/internal/domain"
	"shop_service/internal/messaging"

	"github.com/sirupsen/logrus"
)

type CartUseCase interface {
	GetOrCreateCart(ctx context.Context, userID int) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID, quantity int) (*domain.Cart, error)
	// UpdateItemQuantity returns a nil item when policy removed the line.
	UpdateItemQuantity(ctx context.Context, userID, itemID, quantity int, policy domain.ZeroQuantityPolicy) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int) error
}

type cartUseCase struct {
	store     domain.DataStore
	publisher messaging.Publisher
	log       *logrus.Logger
}

func NewCartUseCase(store domain.DataStore, publisher messaging.Publisher, logger *logrus.Logger) CartUseCase {
	return &cartUseCase{
		store:     store,
		publisher: publisher,
		log:       logger,
	}
}

func (uc *cartUseCase) loadCart(ctx context.Context, store domain.Store, userID int) (*domain.Cart, error) {
	cart, err := store.Carts().GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := store.Carts().ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.ComputeTotal()
	return cart, nil
}

func (uc *cartUseCase) GetOrCreateCart(ctx context.Context, userID int) (*domain.Cart, error) {
	if userID <= 0 {
		return nil, invalid("invalid user ID")
	}

	var cart *domain.Cart
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		cart, err = uc.loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load cart for user %d: %v", userID, err)
		return nil, err
	}
	return cart, nil
}

// lockedItem resolves an item owned by userID and locks its product. The
// product row is always locked before the item is trusted, so concurrent
// mutations of the same product serialize in one order.
func lockedItem(ctx context.Context, tx domain.Store, userID, itemID int) (*domain.CartItem, *domain.Product, error) {
	owned, err := tx.Carts().GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, nil, err
	}
	product, err := tx.Products().GetProductForUpdate(ctx, owned.ProductID)
	if err != nil {
		return nil, nil, err
	}
	item, err := tx.Carts().GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, nil, err
	}
	item.ProductName = product.Name
	return item, product, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, userID, productID, quantity int) (*domain.Cart, error) {
	if userID <= 0 {
		return nil, invalid("invalid user ID")
	}
	if quantity < 1 {
		uc.log.Warnf("Use Case: User %d tried to add product %d with quantity %d", userID, productID, quantity)
		return nil, invalid("quantity must be at least 1, got %d", quantity)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("product with id %d: %w", productID, domain.ErrNotFound)
	}

	var cart *domain.Cart
	var event domain.StockChanged
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		product, err := tx.Products().GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product.Stock < quantity {
			return fmt.Errorf("product %d has %d in stock, requested %d: %w",
				productID, product.Stock, quantity, domain.ErrInsufficientStock)
		}

		cart, err = tx.Carts().GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		price := domain.DiscountedPrice(product.Price, product.Discount)
		item, err := tx.Carts().FindItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			item.Quantity += quantity
			item.Price.Decimal, item.Price.Valid = price, true
			if err := tx.Carts().UpdateItem(ctx, item); err != nil {
				return err
			}
		case isNotFound(err):
			item = &domain.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			item.Price.Decimal, item.Price.Valid = price, true
			if item, err = tx.Carts().CreateItem(ctx, item); err != nil {
				return err
			}
		default:
			return err
		}

		stock, err := tx.Products().AdjustStock(ctx, productID, -quantity)
		if err != nil {
			return err
		}
		event = domain.StockChanged{
			ProductID:  productID,
			Delta:      -quantity,
			Stock:      stock,
			Reason:     domain.StockReasonCartAdd,
			UserID:     userID,
			CartItemID: item.ID,
		}

		cart, err = uc.loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		uc.log.Warnf("Use Case: User %d failed to add %d x product %d: %v", userID, quantity, productID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User %d added %d x product %d to cart %d", userID, quantity, productID, cart.ID)
	uc.publish(ctx, event)
	return cart, nil
}

func (uc *cartUseCase) UpdateItemQuantity(ctx context.Context, userID, itemID, quantity int, policy domain.ZeroQuantityPolicy) (*domain.CartItem, error) {
	if userID <= 0 {
		return nil, invalid("invalid user ID")
	}
	if quantity == 0 && policy == domain.ZeroQuantityRemove {
		return nil, uc.RemoveItem(ctx, userID, itemID)
	}
	if quantity < 1 {
		uc.log.Warnf("Use Case: User %d tried to set item %d to quantity %d", userID, itemID, quantity)
		return nil, invalid("quantity must be at least 1, got %d", quantity)
	}

	var updated *domain.CartItem
	var event *domain.StockChanged
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		item, product, err := lockedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		diff := quantity - item.Quantity
		if diff > 0 && product.Stock < diff {
			return fmt.Errorf("product %d has %d in stock, requested %d more: %w",
				product.ID, product.Stock, diff, domain.ErrInsufficientStock)
		}
		if diff != 0 {
			stock, err := tx.Products().AdjustStock(ctx, product.ID, -diff)
			if err != nil {
				return err
			}
			event = &domain.StockChanged{
				ProductID:  product.ID,
				Delta:      -diff,
				Stock:      stock,
				Reason:     domain.StockReasonCartUpdate,
				UserID:     userID,
				CartItemID: item.ID,
			}
		}

		item.Quantity = quantity
		if err := tx.Carts().UpdateItem(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		uc.log.Warnf("Use Case: User %d failed to set item %d to quantity %d: %v", userID, itemID, quantity, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User %d set cart item %d to quantity %d", userID, itemID, quantity)
	if event != nil {
		uc.publish(ctx, *event)
	}
	return updated, nil
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, userID, itemID int) error {
	if userID <= 0 {
		return invalid("invalid user ID")
	}

	var event domain.StockChanged
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		item, product, err := lockedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		stock, err := tx.Products().AdjustStock(ctx, product.ID, item.Quantity)
		if err != nil {
			return err
		}
		if err := tx.Carts().DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		event = domain.StockChanged{
			ProductID:  product.ID,
			Delta:      item.Quantity,
			Stock:      stock,
			Reason:     domain.StockReasonCartRemove,
			UserID:     userID,
			CartItemID: item.ID,
		}
		return nil
	})
	if err != nil {
		uc.log.Warnf("Use Case: User %d failed to remove cart item %d: %v", userID, itemID, err)
		return err
	}

	uc.log.Infof("Use Case: User %d removed cart item %d, restored %d units of product %d",
		userID, itemID, event.Delta, event.ProductID)
	uc.publish(ctx, event)
	return nil
}

// publish runs after commit; the mutation already happened, so a broker
// failure is only logged.
func (uc *cartUseCase) publish(ctx context.Context, event domain.StockChanged) {
	if err := uc.publisher.PublishStockChanged(ctx, event); err != nil {
		uc.log.Errorf("Use Case: Failed to publish stock event for product %d: %v", event.ProductID, err)
	}
}
