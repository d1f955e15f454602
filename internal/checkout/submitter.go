// Package checkout sends the kiosk's cart to the ordering server and drives
// the checkout screen from payment selection to completion.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/zensushi/zen/internal/cart"
	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/idempotency"
	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/httpclient"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/middleware"
	"github.com/zensushi/zen/pkg/money"
)

// OrderPath is the server endpoint receiving orders.
const OrderPath = "/finalizar-pedido"

// MessageFailure is the only failure text ever shown to the customer.
const MessageFailure = "Ocorreu um erro ao finalizar o pedido. Tente novamente."

const (
	maxReceiptBytes = 64 << 10
	headerOrderID   = "X-Order-ID"
)

// Submission failure kinds. A *SubmitError matches one of them with
// errors.Is.
var (
	ErrTransport = errors.New("order submission: transport failure")
	ErrRemote    = errors.New("order submission: server rejected order")
	ErrDecode    = errors.New("order submission: malformed response")
)

// SubmitError describes a failed submission for operators.
type SubmitError struct {
	Kind   error
	Status int
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// OrderResult is what the checkout screen shows after a submission.
type OrderResult struct {
	Success       bool
	Message       string
	ItemCount     int
	Total         money.Cents
	PaymentMethod string
	OrderID       string
	Replayed      bool
}

func failure() OrderResult {
	return OrderResult{Message: MessageFailure}
}

// Doer sends HTTP requests. *httpclient.Client and
// *httpclient.CircuitBreakerClient satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// breakerStater is implemented by clients with a circuit breaker in front.
type breakerStater interface {
	State() gobreaker.State
}

// Submitter posts orders to the server. Concurrent calls share a single
// in-flight request.
type Submitter struct {
	client   Doer
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// NewSubmitter creates a Submitter posting to serverURL + OrderPath. Each
// submission is bounded by timeout.
func NewSubmitter(client Doer, serverURL string, timeout time.Duration, logger *slog.Logger) *Submitter {
	return &Submitter{
		client:   client,
		endpoint: strings.TrimRight(serverURL, "/") + OrderPath,
		timeout:  timeout,
		logger:   logger,
	}
}

// Submit sends snap with the chosen payment method in a single attempt.
// The session id in ctx, if any, is sent as the idempotency key.
//
// The returned OrderResult is always fit for display: on any failure it
// carries MessageFailure and the error describes what went wrong.
func (s *Submitter) Submit(ctx context.Context, snap cart.Snapshot, method domain.PaymentMethod) (OrderResult, error) {
	if snap.IsEmpty() {
		return failure(), apperrors.InvalidInput("cannot submit an empty cart")
	}
	if !method.Valid() {
		return failure(), apperrors.InvalidInput(fmt.Sprintf("unknown payment method %q", method))
	}

	v, err, shared := s.group.Do("submit", func() (any, error) {
		return s.submit(ctx, snap, method)
	})
	if shared {
		logger.WithContext(ctx, s.logger).DebugContext(ctx, "joined in-flight order submission")
	}
	if err != nil {
		return failure(), err
	}
	return v.(OrderResult), nil
}

func (s *Submitter) submit(ctx context.Context, snap cart.Snapshot, method domain.PaymentMethod) (OrderResult, error) {
	l := logger.WithContext(ctx, s.logger)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items := make([]domain.OrderItem, snap.Len())
	for i, item := range snap.Items {
		items[i] = item.OrderItem()
	}
	body, err := json.Marshal(domain.Order{Items: items, Total: snap.Total, PaymentMethod: method})
	if err != nil {
		return OrderResult{}, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return OrderResult{}, s.fail(ctx, l, &SubmitError{Kind: ErrTransport, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sessionID := logger.SessionIDFromContext(ctx); sessionID != "" {
		req.Header.Set(middleware.HeaderSessionID, sessionID)
		req.Header.Set(idempotency.HeaderKey, sessionID)
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return OrderResult{}, s.fail(ctx, l, &SubmitError{Kind: ErrRemote, Status: statusErr.StatusCode, Err: err})
		}
		return OrderResult{}, s.fail(ctx, l, &SubmitError{Kind: ErrTransport, Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := httpclient.ParseResponseError(resp, "zen-server")
		return OrderResult{}, s.fail(ctx, l, &SubmitError{Kind: ErrRemote, Status: resp.StatusCode, Err: remoteErr})
	}
	defer func() { _ = resp.Body.Close() }()

	var receipt domain.Receipt
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxReceiptBytes))
	if err := dec.Decode(&receipt); err != nil {
		return OrderResult{}, s.fail(ctx, l, &SubmitError{Kind: ErrDecode, Status: resp.StatusCode, Err: err})
	}
	if receipt.Message == "" {
		return OrderResult{}, s.fail(ctx, l, &SubmitError{
			Kind: ErrDecode, Status: resp.StatusCode, Err: errors.New("response has no mensagem"),
		})
	}

	result := OrderResult{
		Success:       true,
		Message:       receipt.Message,
		ItemCount:     receipt.Details.Items,
		Total:         receipt.Details.Total,
		PaymentMethod: receipt.Details.Payment,
		OrderID:       resp.Header.Get(headerOrderID),
		Replayed:      resp.Header.Get(idempotency.HeaderReplayed) == "true",
	}
	l.InfoContext(ctx, "order submitted",
		slog.String("order_id", result.OrderID),
		slog.Int("item_count", result.ItemCount),
		slog.String("total", result.Total.BRL()),
		slog.Bool("replayed", result.Replayed),
	)
	return result, nil
}

func (s *Submitter) fail(ctx context.Context, l *slog.Logger, err *SubmitError) error {
	attrs := []slog.Attr{
		slog.String("endpoint", s.endpoint),
		slog.Int("status", err.Status),
		slog.String("error", err.Error()),
	}
	if b, ok := s.client.(breakerStater); ok {
		attrs = append(attrs, slog.String("breaker_state", b.State().String()))
	}
	l.LogAttrs(ctx, slog.LevelError, "order submission failed", attrs...)
	return err
}
