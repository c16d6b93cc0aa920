package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"shop_service/internal/domain"

	"github.com/google/uuid"
)

const StockChangedType = "stock.changed"

type Publisher interface {
	PublishStockChanged(ctx context.Context, event domain.StockChanged) error
	Close() error
}

// Envelope is the wire form of every published event.
type Envelope struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    domain.StockChanged `json:"payload"`
}

func newEnvelope(event domain.StockChanged, now time.Time) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       StockChangedType,
		OccurredAt: now.UTC(),
		Payload:    event,
	}
}

// encode returns the partition key and JSON value for event.
func encode(event domain.StockChanged, now time.Time) ([]byte, []byte, error) {
	payload, err := json.Marshal(newEnvelope(event, now))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return []byte(strconv.Itoa(event.ProductID)), payload, nil
}
