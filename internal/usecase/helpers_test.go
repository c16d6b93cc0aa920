package usecase

import (
	"context"
	"io"
	"sync"
	"testing"

	"shop_service/internal/domain"
	"shop_service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StockChanged
	err    error
}

func (p *recordingPublisher) PublishStockChanged(ctx context.Context, event domain.StockChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) recorded() []domain.StockChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.StockChanged(nil), p.events...)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func seedProduct(t *testing.T, store *memory.Store, price string, discount string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:  "Product",
		Price: mustDecimal(t, price),
		Stock: stock,
	}
	if discount != "" {
		p.Discount = decimal.NewNullDecimal(mustDecimal(t, discount))
	}
	p.ApplyPricing()
	created, err := store.Products().CreateProduct(context.Background(), p)
	require.NoError(t, err)
	return created
}

func stockOf(t *testing.T, store *memory.Store, productID int) int {
	t.Helper()
	p, err := store.Products().GetProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}
