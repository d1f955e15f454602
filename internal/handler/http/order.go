package http

import (
	"log/slog"
	"net/http"

	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/internal/idempotency"
	"github.com/zensushi/zen/internal/service"
	"github.com/zensushi/zen/pkg/httputil"
	"github.com/zensushi/zen/pkg/money"
	"github.com/zensushi/zen/pkg/validator"
)

// HeaderOrderID carries the id assigned to an accepted order.
const HeaderOrderID = "X-Order-ID"

// OrderHandler handles order submission.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// PlaceOrderRequest is the JSON body of POST /finalizar-pedido.
type PlaceOrderRequest struct {
	Carrinho      []OrderItemRequest `json:"carrinho" validate:"required,min=1,max=100,dive"`
	Total         money.Cents        `json:"total" validate:"gte=0"`
	TipoPagamento string             `json:"tipoPagamento" validate:"required,oneof=PIX Cartão Dinheiro"`
}

// OrderItemRequest is one line of PlaceOrderRequest.
type OrderItemRequest struct {
	Nome  string      `json:"nome" validate:"required,notblank,max=200"`
	Preco money.Cents `json:"preco" validate:"gte=0,lte=100000000"`
}

func (req *PlaceOrderRequest) toDomain() *domain.Order {
	items := make([]domain.OrderItem, len(req.Carrinho))
	for i, item := range req.Carrinho {
		items[i] = domain.OrderItem{Name: item.Nome, Price: item.Preco}
	}
	return &domain.Order{
		Items:         items,
		Total:         req.Total,
		PaymentMethod: domain.PaymentMethod(req.TipoPagamento),
	}
}

// PlaceOrder handles POST /finalizar-pedido. A successful response is the
// bare receipt object; errors use the standard envelope.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	outcome, err := h.service.PlaceOrder(r.Context(), idempotencyKeyFromContext(r.Context()), req.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set(HeaderOrderID, outcome.OrderID)
	if outcome.Replayed {
		w.Header().Set(idempotency.HeaderReplayed, "true")
	}
	httputil.WriteJSON(w, http.StatusOK, outcome.Receipt)
}
