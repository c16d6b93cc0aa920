package messaging

import (
	"context"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type logPublisher struct {
	log *logrus.Logger
}

// NewLogPublisher writes events to the log instead of a broker.
func NewLogPublisher(logger *logrus.Logger) Publisher {
	return &logPublisher{log: logger}
}

func (p *logPublisher) PublishStockChanged(ctx context.Context, event domain.StockChanged) error {
	p.log.WithFields(logrus.Fields{
		"product_id":   event.ProductID,
		"delta":        event.Delta,
		"stock":        event.Stock,
		"reason":       event.Reason,
		"user_id":      event.UserID,
		"cart_item_id": event.CartItemID,
	}).Info("Messaging: Stock changed")
	return nil
}

func (p *logPublisher) Close() error { return nil }
