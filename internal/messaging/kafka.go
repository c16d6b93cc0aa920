package messaging

import (
	"context"
	"fmt"
	"time"

	"shop_service/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type kafkaPublisher struct {
	writer *kafka.Writer
	log    *logrus.Logger
}

// NewKafkaPublisher keeps one writer for the stock topic. Messages are keyed
// by product id so events of one product stay ordered.
func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
		log: logger,
	}
}

func (p *kafkaPublisher) PublishStockChanged(ctx context.Context, event domain.StockChanged) error {
	key, value, err := encode(event, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to publish stock event for product %d: %w", event.ProductID, err)
	}
	p.log.Debugf("Messaging: Published stock event for product %d to %s", event.ProductID, p.writer.Topic)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
