package messaging

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"shop_service/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeysByProduct(t *testing.T) {
	event := domain.StockChanged{
		ProductID:  7,
		Delta:      -2,
		Stock:      3,
		Reason:     domain.StockReasonCartAdd,
		UserID:     11,
		CartItemID: 5,
	}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	key, value, err := encode(event, now)
	require.NoError(t, err)
	assert.Equal(t, "7", string(key))

	var env Envelope
	require.NoError(t, json.Unmarshal(value, &env))
	assert.Equal(t, StockChangedType, env.Type)
	assert.True(t, env.OccurredAt.Equal(now))
	assert.Equal(t, event, env.Payload)
	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
}

func TestLogPublisher(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hook := test.NewLocal(logger)

	p := NewLogPublisher(logger)
	err := p.PublishStockChanged(context.Background(), domain.StockChanged{ProductID: 3, Delta: 1, Reason: domain.StockReasonCartRemove})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Data["product_id"])
	assert.Equal(t, domain.StockReasonCartRemove, entry.Data["reason"])
}
