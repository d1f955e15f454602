// Package kiosk is a line-oriented ordering terminal. It owns one cart and
// one checkout flow and talks to the server through the checkout package.
package kiosk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zensushi/zen/internal/cart"
	"github.com/zensushi/zen/internal/checkout"
	"github.com/zensushi/zen/internal/domain"
)

// Customer-facing messages.
const (
	msgCartEmpty     = "O carrinho está vazio."
	msgCartCleared   = "O carrinho foi esvaziado!"
	msgOrderComplete = "Pedido concluído! Obrigado pela preferência! 😊"
	msgProcessing    = "Processando pagamento com %s..."
)

// MenuSource loads the menu.
type MenuSource interface {
	Fetch(ctx context.Context) ([]domain.MenuItem, error)
}

// Options configures a Kiosk.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Menu       MenuSource
	Submitter  checkout.OrderSubmitter
	CloseDelay time.Duration
}

// Kiosk runs the ordering session.
type Kiosk struct {
	in     io.Reader
	outMu  sync.Mutex
	out    io.Writer
	menu   MenuSource
	items  []domain.MenuItem
	cart   *cart.Store
	flow   *checkout.Flow
	logger *slog.Logger

	// A flow with no close delay finishes inside Pay; the completion
	// message then waits until the payment result is printed.
	paying      atomic.Bool
	closedInPay atomic.Bool
}

// New creates a Kiosk with an empty cart.
func New(opts Options, logger *slog.Logger) *Kiosk {
	k := &Kiosk{
		in:     opts.In,
		out:    opts.Out,
		menu:   opts.Menu,
		cart:   cart.NewStore(logger),
		logger: logger,
	}
	k.flow = checkout.NewFlow(k.cart, opts.Submitter, checkout.FlowConfig{
		CloseDelay: opts.CloseDelay,
		OnClosed:   k.orderClosed,
	}, logger)
	return k
}

// Cart returns the session's cart.
func (k *Kiosk) Cart() *cart.Store { return k.cart }

// Flow returns the session's checkout flow.
func (k *Kiosk) Flow() *checkout.Flow { return k.flow }

// Run reads commands until quit, end of input or ctx is done.
func (k *Kiosk) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(k.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	k.println("Bem-vindo ao Zen Sushi! Digite 'help' para ver os comandos.")
	k.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line := <-lines:
			if k.Execute(ctx, line) {
				return nil
			}
			k.prompt()
		}
	}
}

// Execute runs a single command line and reports whether the session
// should end.
func (k *Kiosk) Execute(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "menu", "cardapio":
		k.showMenu(ctx, true)
	case "add", "adicionar":
		k.add(ctx, args)
	case "remove", "remover":
		k.remove(args)
	case "cart", "carrinho":
		k.showCart()
	case "clear", "esvaziar":
		k.clear()
	case "checkout", "finalizar":
		k.checkout()
	case "pay", "pagar":
		k.pay(ctx, strings.Join(args, " "))
	case "close", "fechar":
		k.closePayment()
	case "help", "ajuda":
		k.help()
	case "quit", "exit", "sair":
		k.println("Até logo!")
		return true
	default:
		k.printf("Comando desconhecido: %s. Digite 'help'.\n", fields[0])
	}
	return false
}

func (k *Kiosk) showMenu(ctx context.Context, refresh bool) bool {
	if refresh || k.items == nil {
		items, err := k.menu.Fetch(ctx)
		if err != nil {
			k.logger.ErrorContext(ctx, "failed to load menu", slog.String("error", err.Error()))
			if k.items == nil {
				k.println("Não foi possível carregar o cardápio. Tente novamente.")
				return false
			}
		} else {
			k.items = items
		}
	}
	if !refresh {
		return true
	}
	k.println("--- Cardápio ---")
	for _, item := range k.items {
		k.printf("%d. %s - %s\n", item.ID, item.Name, item.Price.BRL())
	}
	return true
}

func (k *Kiosk) add(ctx context.Context, args []string) {
	if len(args) != 1 {
		k.println("Uso: add <id do prato>")
		return
	}
	if k.flow.State() != checkout.StateIdle {
		k.println("Feche o pagamento antes de alterar o carrinho.")
		return
	}
	if !k.showMenu(ctx, false) {
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		k.printf("Prato inválido: %s\n", args[0])
		return
	}
	for _, item := range k.items {
		if item.ID != id {
			continue
		}
		if _, err := k.cart.Add(item.Name, item.Price); err != nil {
			k.logger.Warn("menu item rejected by cart", slog.Int("id", id), slog.String("error", err.Error()))
			k.printf("Não foi possível adicionar %s.\n", item.Name)
			return
		}
		k.printf("%s adicionado ao carrinho. (%d itens)\n", item.Name, k.cart.Len())
		return
	}
	k.printf("Prato inválido: %s\n", args[0])
}

// remove takes the 1-based position shown by the cart command.
func (k *Kiosk) remove(args []string) {
	if len(args) != 1 {
		k.println("Uso: remove <número do item>")
		return
	}
	if k.flow.State() != checkout.StateIdle {
		k.println("Feche o pagamento antes de alterar o carrinho.")
		return
	}

	var removed bool
	if n, err := strconv.Atoi(args[0]); err == nil {
		removed = k.cart.RemoveAt(n - 1)
	} else {
		removed = k.cart.RemoveAtParam(args[0])
	}
	if !removed {
		k.printf("Item inválido: %s\n", args[0])
		return
	}
	k.println("Item removido.")
	k.showCart()
}

func (k *Kiosk) showCart() {
	snap := k.cart.Snapshot()
	if snap.IsEmpty() {
		k.println(msgCartEmpty)
		return
	}
	k.println("--- Carrinho ---")
	for i, item := range snap.Items {
		k.printf("%d. %s - %s\n", i+1, item.Name(), item.Price().BRL())
	}
	k.printf("Total: %s\n", snap.Total.BRL())
}

func (k *Kiosk) clear() {
	if k.flow.State() != checkout.StateIdle {
		k.println("Feche o pagamento antes de alterar o carrinho.")
		return
	}
	k.cart.Clear()
	k.println(msgCartCleared)
}

func (k *Kiosk) checkout() {
	snap, err := k.flow.Checkout()
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		k.println(msgCartEmpty)
		return
	case errors.Is(err, checkout.ErrAlreadyCheckingOut):
		k.println("O pagamento já está aberto.")
		return
	case err != nil:
		k.println(checkout.MessageFailure)
		return
	}

	methods := make([]string, 0, 3)
	for _, m := range domain.PaymentMethods() {
		methods = append(methods, string(m))
	}
	k.printf("Total a pagar: %s\n", snap.Total.BRL())
	k.printf("Escolha a forma de pagamento (pay <forma>): %s\n", strings.Join(methods, ", "))
}

func (k *Kiosk) pay(ctx context.Context, arg string) {
	method, err := domain.ParsePaymentMethod(arg)
	if err != nil {
		k.println("Forma de pagamento inválida. Use PIX, Cartão ou Dinheiro.")
		return
	}

	state := k.flow.State()
	if state == checkout.StateAwaitingPayment || state == checkout.StateFailed {
		k.printf(msgProcessing+"\n", method)
	}

	k.paying.Store(true)
	res, err := k.flow.Pay(ctx, method)
	k.paying.Store(false)
	defer func() {
		if k.closedInPay.Swap(false) {
			k.println(msgOrderComplete)
		}
	}()

	switch {
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		k.println("Pagamento já em andamento. Aguarde.")
	case errors.Is(err, checkout.ErrNotAwaitingPayment):
		k.println("Use 'checkout' antes de escolher o pagamento.")
	default:
		// Any other failure is already logged; res carries the message.
		k.println(res.Message)
		if res.Success && res.Replayed {
			// The server answered with the session's earlier order.
			k.printf("Pedido já registrado com pagamento via %s.\n", res.PaymentMethod)
		}
	}
}

func (k *Kiosk) orderClosed() {
	if k.paying.Load() {
		k.closedInPay.Store(true)
		return
	}
	k.println(msgOrderComplete)
}

func (k *Kiosk) closePayment() {
	if err := k.flow.Close(); err != nil {
		k.println("Aguarde o processamento do pagamento.")
		return
	}
	k.println("Pagamento fechado.")
}

func (k *Kiosk) help() {
	k.println(`Comandos:
  menu              mostra o cardápio
  add <id>          adiciona um prato ao carrinho
  remove <n>        remove o item n do carrinho
  cart              mostra o carrinho
  clear             esvazia o carrinho
  checkout          abre o pagamento
  pay <forma>       paga com PIX, Cartão ou Dinheiro
  close             fecha o pagamento
  quit              sai`)
}

func (k *Kiosk) prompt() {
	k.outMu.Lock()
	defer k.outMu.Unlock()
	_, _ = io.WriteString(k.out, "> ")
}

func (k *Kiosk) println(s string) {
	k.outMu.Lock()
	defer k.outMu.Unlock()
	_, _ = fmt.Fprintln(k.out, s)
}

func (k *Kiosk) printf(format string, args ...any) {
	k.outMu.Lock()
	defer k.outMu.Unlock()
	_, _ = fmt.Fprintf(k.out, format, args...)
}
