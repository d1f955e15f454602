package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/idempotency"
	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/money"
	"github.com/zensushi/zen/pkg/tracing"
)

const tracerName = "github.com/zensushi/zen/internal/service"

// OrderPublisher announces accepted orders.
type OrderPublisher interface {
	PublishOrderReceived(ctx context.Context, orderID string, order *domain.Order, total money.Cents) error
}

// OrderOutcome is the result of PlaceOrder.
type OrderOutcome struct {
	OrderID  string
	Receipt  domain.Receipt
	Replayed bool
}

// OrderService accepts orders. Orders are logged, counted and optionally
// published; nothing is stored beyond the idempotency record.
type OrderService struct {
	store     idempotency.Store
	publisher OrderPublisher
	logger    *slog.Logger
	newID     func() string
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(store idempotency.Store, publisher OrderPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// PlaceOrder accepts order. When key is not empty, a repeated key returns
// the first outcome with Replayed set.
func (s *OrderService) PlaceOrder(ctx context.Context, key string, order *domain.Order) (out *OrderOutcome, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(attribute.Bool("zen.idempotent", key != "")))
	defer func() {
		if out != nil {
			span.SetAttributes(
				attribute.String("zen.order_id", out.OrderID),
				attribute.Bool("zen.replayed", out.Replayed),
			)
		}
		tracing.RecordError(span, err)
		span.End()
	}()
	return s.placeOrder(ctx, key, order)
}

func (s *OrderService) placeOrder(ctx context.Context, key string, order *domain.Order) (*OrderOutcome, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	l := logger.WithContext(ctx, s.logger)

	if key != "" {
		rec, err := s.store.Begin(ctx, key)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			return nil, apperrors.Conflict("a request with this Idempotency-Key is still being processed")
		case err != nil:
			l.ErrorContext(ctx, "idempotency store unavailable",
				slog.String("error", err.Error()),
			)
			return nil, apperrors.ServiceUnavailable("order intake is temporarily unavailable")
		case rec != nil:
			ordersReplayed.Inc()
			l.InfoContext(ctx, "replaying order",
				slog.String("order_id", rec.OrderID),
			)
			return &OrderOutcome{OrderID: rec.OrderID, Receipt: rec.Receipt, Replayed: true}, nil
		}
	}

	finished := false
	defer func() {
		if key == "" || finished {
			return
		}
		if err := s.store.Abort(context.WithoutCancel(ctx), key); err != nil {
			l.WarnContext(ctx, "failed to release idempotency key",
				slog.String("error", err.Error()),
			)
		}
	}()

	// Nothing has been accepted yet; a caller that went away gets nothing.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	total := order.ItemsTotal()
	if total != order.Total {
		orderTotalMismatch.Inc()
		l.WarnContext(ctx, "order total does not match items",
			slog.String("client_total", order.Total.String()),
			slog.String("computed_total", total.String()),
		)
	}

	orderID := s.newID()
	l.InfoContext(ctx, "new order received",
		slog.String("order_id", orderID),
		slog.Any("items", describeItems(order.Items)),
		slog.Int("item_count", len(order.Items)),
		slog.String("total", total.BRL()),
		slog.String("payment_method", string(order.PaymentMethod)),
	)

	ordersReceived.WithLabelValues(string(order.PaymentMethod)).Inc()
	orderValue.Observe(total.Float64())

	if s.publisher != nil {
		if err := s.publisher.PublishOrderReceived(ctx, orderID, order, total); err != nil {
			l.WarnContext(ctx, "order event not published",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}

	outcome := &OrderOutcome{
		OrderID: orderID,
		Receipt: domain.Receipt{
			Message: domain.MessageOrderProcessed,
			Details: domain.ReceiptDetails{
				Total:   total,
				Items:   len(order.Items),
				Payment: string(order.PaymentMethod),
			},
		},
	}

	if key != "" {
		if err := s.store.Finish(ctx, key, idempotency.Record{OrderID: orderID, Receipt: outcome.Receipt}); err != nil {
			// The order is already accepted; a retry with this key may duplicate it.
			l.ErrorContext(ctx, "failed to store idempotency record",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		} else {
			finished = true
		}
	}

	return outcome, nil
}

func validateOrder(order *domain.Order) error {
	if order == nil || len(order.Items) == 0 {
		return apperrors.InvalidInput("carrinho must contain at least one item")
	}
	if !order.PaymentMethod.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown tipoPagamento %q", order.PaymentMethod))
	}
	for i, item := range order.Items {
		if strings.TrimSpace(item.Name) == "" {
			return apperrors.InvalidInput(fmt.Sprintf("carrinho[%d].nome must not be blank", i))
		}
		if item.Price.IsNegative() {
			return apperrors.InvalidInput(fmt.Sprintf("carrinho[%d].preco must not be negative", i))
		}
	}
	return nil
}

func describeItems(items []domain.OrderItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%s (%s)", item.Name, item.Price.BRL())
	}
	return out
}
