package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zensushi/zen/internal/domain"
	pkgkafka "github.com/zensushi/zen/pkg/kafka"
	"github.com/zensushi/zen/pkg/money"
)

// TopicOrderReceived is the default topic for order events.
var TopicOrderReceived = pkgkafka.Topic("order", "received")

// Event type and aggregate identifiers.
const (
	EventOrderReceived = "order.received"
	AggregateTypeOrder = "order"
	SourceServer       = "zen-server"
)

// OrderReceivedData is the payload for an order.received event.
type OrderReceivedData struct {
	OrderID       string          `json:"order_id"`
	Items         []OrderItemData `json:"items"`
	ItemCount     int             `json:"item_count"`
	Total         money.Cents     `json:"total"`
	ClientTotal   money.Cents     `json:"client_total"`
	PaymentMethod string          `json:"payment_method"`
}

// OrderItemData is a line within an order event.
type OrderItemData struct {
	Name  string      `json:"name"`
	Price money.Cents `json:"price"`
}

// Producer publishes order events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	topic  string
	logger *slog.Logger
}

// NewProducer creates an event producer writing to topic. An empty topic
// selects TopicOrderReceived.
func NewProducer(kafka *pkgkafka.Producer, topic string, logger *slog.Logger) *Producer {
	if topic == "" {
		topic = TopicOrderReceived
	}
	return &Producer{
		kafka:  kafka,
		topic:  topic,
		logger: logger,
	}
}

// PublishOrderReceived publishes an order.received event keyed by order id.
func (p *Producer) PublishOrderReceived(ctx context.Context, orderID string, order *domain.Order, total money.Cents) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{Name: item.Name, Price: item.Price}
	}

	data := OrderReceivedData{
		OrderID:       orderID,
		Items:         items,
		ItemCount:     len(items),
		Total:         total,
		ClientTotal:   order.Total,
		PaymentMethod: string(order.PaymentMethod),
	}

	event, err := pkgkafka.NewEvent(ctx, EventOrderReceived, orderID, AggregateTypeOrder, SourceServer, data,
		pkgkafka.WithMetadata("payment_method", data.PaymentMethod))
	if err != nil {
		return fmt.Errorf("create order.received event: %w", err)
	}

	if err := p.kafka.Publish(ctx, p.topic, event); err != nil {
		return fmt.Errorf("publish order.received event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.received event",
		slog.String("order_id", orderID),
		slog.String("topic", p.topic),
	)

	return nil
}
