package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/variant"
	"github.com/fekuna/catalog-service/pkg/broker"
	"github.com/fekuna/catalog-service/pkg/logger"
)

// OrderListener consumes OrderCreated events and deducts stock for each line
// item through the same serializable adjustment path the HTTP endpoint uses.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       variant.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc variant.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("order_id", event.Payload.ID))

	for _, item := range event.Payload.Items {
		if item.VariantID == "" || item.Quantity <= 0 {
			continue
		}

		_, err := l.uc.AdjustStock(ctx, item.ProductID, item.VariantID, -item.Quantity)
		if err != nil {
			// Insufficient stock or a concurrency conflict surfaces here; the
			// event is not retried, reconciliation happens upstream.
			l.logger.Error("Failed to deduct stock for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("variant_id", item.VariantID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}
