package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
)

// KafkaBridge mirrors every dispatched domain event onto a Kafka topic,
// keyed by ticket id so a ticket's events land on one partition in order.
type KafkaBridge struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaBridge builds the bridge writer.
func NewKafkaBridge(cfg config.KafkaConfig, logger *zap.Logger) *KafkaBridge {
	return &KafkaBridge{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.EventsTopic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// Register subscribes the bridge to all event types on the dispatcher.
func (b *KafkaBridge) Register(dispatcher Dispatcher) {
	for _, eventType := range []EventType{
		EventTicketCreated,
		EventTicketStatusChanged,
		EventTicketAssigned,
		EventTicketMessageAdded,
	} {
		dispatcher.Subscribe(eventType, b.handle)
	}
}

func (b *KafkaBridge) handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.TicketID),
		Value: data,
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		b.logger.Warn("kafka publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	return nil
}

// Close closes the Kafka writer.
func (b *KafkaBridge) Close() error {
	return b.writer.Close()
}
