package domain

import (
	"fmt"
	"strings"

	"github.com/zensushi/zen/pkg/money"
)

// PaymentMethod labels how the customer intends to pay. No payment is
// processed; the label only travels with the order.
type PaymentMethod string

const (
	PaymentPIX  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "Cartão"
	PaymentCash PaymentMethod = "Dinheiro"
)

// PaymentMethods returns the accepted labels in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentPIX, PaymentCard, PaymentCash}
}

// Valid reports whether m is one of the accepted labels.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPIX, PaymentCard, PaymentCash:
		return true
	}
	return false
}

// ParsePaymentMethod matches s against the accepted labels, ignoring case
// and surrounding space.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// MessageOrderProcessed is the receipt message for an accepted order.
const MessageOrderProcessed = "Pedido processado com sucesso! 🎉"

// OrderItem is one cart line as sent to the server.
type OrderItem struct {
	Name  string      `json:"nome"`
	Price money.Cents `json:"preco"`
}

// Order is the body of POST /finalizar-pedido.
type Order struct {
	Items         []OrderItem   `json:"carrinho"`
	Total         money.Cents   `json:"total"`
	PaymentMethod PaymentMethod `json:"tipoPagamento"`
}

// ItemsTotal sums the item prices.
func (o *Order) ItemsTotal() money.Cents {
	var total money.Cents
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}

// Receipt is the body returned for an accepted order.
type Receipt struct {
	Message string         `json:"mensagem"`
	Details ReceiptDetails `json:"detalhes"`
}

// ReceiptDetails summarises the accepted order.
type ReceiptDetails struct {
	Total   money.Cents `json:"total"`
	Items   int         `json:"itens"`
	Payment string      `json:"pagamento"`
}
