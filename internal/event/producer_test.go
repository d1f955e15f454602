package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zensushi/zen/internal/domain"
	pkgkafka "github.com/zensushi/zen/pkg/kafka"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/money"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestProducer(w *recordingWriter, topic string) *Producer {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, nil, l), topic, l)
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		Items: []domain.OrderItem{
			{Name: "Sushi Especial", Price: 2500},
			{Name: "Yakisoba", Price: 3000},
		},
		Total:         5500,
		PaymentMethod: domain.PaymentCard,
	}
}

func TestPublishOrderReceived(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w, "")
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")

	err := p.PublishOrderReceived(ctx, "ord-1", sampleOrder(), 5500)
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicOrderReceived, msg.Topic)
	assert.Equal(t, "zen.order.received", msg.Topic)
	assert.Equal(t, "ord-1", string(msg.Key))

	evt, err := pkgkafka.UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EventOrderReceived, evt.EventType)
	assert.Equal(t, AggregateTypeOrder, evt.AggregateType)
	assert.Equal(t, SourceServer, evt.Source)
	assert.Equal(t, "corr-9", evt.CorrelationID)
	assert.Equal(t, "Cartão", evt.Metadata["payment_method"])

	var data OrderReceivedData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "ord-1", data.OrderID)
	assert.Equal(t, 2, data.ItemCount)
	assert.Equal(t, money.Cents(5500), data.Total)
	assert.Equal(t, "Cartão", data.PaymentMethod)
	assert.Equal(t, "Yakisoba", data.Items[1].Name)
}

func TestPublishOrderReceived_CustomTopic(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w, "kitchen.orders")

	require.NoError(t, p.PublishOrderReceived(context.Background(), "ord-2", sampleOrder(), 5500))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "kitchen.orders", w.msgs[0].Topic)
}

func TestPublishOrderReceived_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newTestProducer(w, "")

	err := p.PublishOrderReceived(context.Background(), "ord-3", sampleOrder(), 5500)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.received event")
	assert.Contains(t, err.Error(), "broker down")
}
