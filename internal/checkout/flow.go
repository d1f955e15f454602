package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zensushi/zen/internal/cart"
	"github.com/zensushi/zen/internal/domain"
	"github.com/zensushi/zen/pkg/logger"
)

// DefaultCloseDelay is how long a successful checkout stays on screen.
const DefaultCloseDelay = 2 * time.Second

// State is a step of the checkout screen.
type State int

const (
	StateIdle State = iota
	StateAwaitingPayment
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrCheckoutInProgress = errors.New("checkout: submission already in progress")
	ErrNotAwaitingPayment = errors.New("checkout: no checkout awaiting payment")
	ErrAlreadyCheckingOut = errors.New("checkout: checkout already open")
)

// OrderSubmitter sends a cart snapshot. *Submitter satisfies it.
type OrderSubmitter interface {
	Submit(ctx context.Context, snap cart.Snapshot, method domain.PaymentMethod) (OrderResult, error)
}

// FlowConfig tunes a Flow.
type FlowConfig struct {
	// CloseDelay before a succeeded checkout returns to idle. Zero returns
	// immediately, before Pay returns.
	CloseDelay time.Duration

	// OnClosed, if set, runs after a succeeded checkout returns to idle.
	OnClosed func()
}

// Flow is the checkout state machine of one kiosk:
//
//	Idle -> AwaitingPayment -> Submitting -> Succeeded -> Idle
//	                               |
//	                               +-> Failed -> (Pay again) Submitting
//
// Each checkout gets a session id that is reused for every payment attempt
// until the order succeeds.
type Flow struct {
	mu         sync.Mutex
	state      State
	sessionID  string
	timer      *time.Timer
	cart       *cart.Store
	submitter  OrderSubmitter
	closeDelay time.Duration
	onClosed   func()
	logger     *slog.Logger
}

// NewFlow creates an idle Flow over store.
func NewFlow(store *cart.Store, submitter OrderSubmitter, cfg FlowConfig, logger *slog.Logger) *Flow {
	return &Flow{
		state:      StateIdle,
		cart:       store,
		submitter:  submitter,
		closeDelay: cfg.CloseDelay,
		onClosed:   cfg.OnClosed,
		logger:     logger,
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SessionID returns the id of the open checkout, or "" when idle.
func (f *Flow) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

// Checkout opens the payment step for a non-empty cart and returns the
// snapshot to show.
func (f *Flow) Checkout() (cart.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		return cart.Snapshot{}, ErrAlreadyCheckingOut
	}
	snap := f.cart.Snapshot()
	if snap.IsEmpty() {
		return cart.Snapshot{}, ErrEmptyCart
	}

	f.state = StateAwaitingPayment
	f.sessionID = uuid.NewString()
	f.logger.Debug("checkout opened", slog.String("session_id", f.sessionID))
	return snap, nil
}

// Pay submits the cart with method. It returns ErrCheckoutInProgress
// without any network I/O while another submission is running.
func (f *Flow) Pay(ctx context.Context, method domain.PaymentMethod) (OrderResult, error) {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return OrderResult{}, ErrCheckoutInProgress
	case StateAwaitingPayment, StateFailed:
	default:
		f.mu.Unlock()
		return OrderResult{}, ErrNotAwaitingPayment
	}
	f.state = StateSubmitting
	sessionID := f.sessionID
	snap := f.cart.Snapshot()
	f.mu.Unlock()

	ctx = logger.WithSessionID(ctx, sessionID)
	result, err := f.submitter.Submit(ctx, snap, method)

	f.mu.Lock()
	if err != nil || !result.Success {
		f.state = StateFailed
		f.mu.Unlock()
		return result, err
	}

	f.cart.Clear()
	f.state = StateSucceeded
	if f.closeDelay <= 0 {
		f.resetLocked()
		f.mu.Unlock()
		f.notifyClosed()
		return result, nil
	}
	f.timer = time.AfterFunc(f.closeDelay, f.finish)
	f.mu.Unlock()
	return result, nil
}

// Close leaves the payment step. It fails with ErrCheckoutInProgress while
// a submission is running. Closing a succeeded checkout skips the
// remaining delay.
func (f *Flow) Close() error {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return ErrCheckoutInProgress
	case StateIdle:
		f.mu.Unlock()
		return nil
	case StateSucceeded:
		if f.timer != nil && !f.timer.Stop() {
			// The timer already fired; finish will reset the flow.
			f.mu.Unlock()
			return nil
		}
		f.resetLocked()
		f.mu.Unlock()
		f.notifyClosed()
		return nil
	default:
		f.resetLocked()
		f.mu.Unlock()
		return nil
	}
}

func (f *Flow) finish() {
	f.mu.Lock()
	if f.state != StateSucceeded {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	f.mu.Unlock()
	f.notifyClosed()
}

func (f *Flow) resetLocked() {
	f.state = StateIdle
	f.sessionID = ""
	f.timer = nil
}

func (f *Flow) notifyClosed() {
	if f.onClosed != nil {
		f.onClosed()
	}
}
