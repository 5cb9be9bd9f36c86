package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)

// Signal is a callback query signal observed on re-entry to the checkout
// view. Success and canceled are mutually exclusive; absence of both means a
// fresh attempt.
type Signal string

const (
	SignalNone     Signal = ""
	SignalSuccess  Signal = "success"
	SignalCanceled Signal = "canceled"
)

// Orchestrator drives the checkout flow for each session: collecting the
// shipping address and payment method, submitting to the payment
// collaborator, and reconciling redirect callbacks. The cart is only cleared
// on confirmed success and preserved on every failure path so the shopper
// can retry.
type Orchestrator struct {
	mu      sync.Mutex
	states  map[string]domain.CheckoutState
	pending map[string]uuid.UUID

	carts    *cart.Engine
	sessions *session.Store
	payments payment.Client
	orders   repository.OrderRepository
	codDelay time.Duration
	logger   *zap.Logger
}

// NewOrchestrator creates a checkout orchestrator. codDelay is the simulated
// processing time for cash-on-delivery orders.
func NewOrchestrator(
	carts *cart.Engine,
	sessions *session.Store,
	payments payment.Client,
	orders repository.OrderRepository,
	codDelay time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		states:   make(map[string]domain.CheckoutState),
		pending:  make(map[string]uuid.UUID),
		carts:    carts,
		sessions: sessions,
		payments: payments,
		orders:   orders,
		codDelay: codDelay,
		logger:   logger,
	}
}

// State returns the session's current checkout state.
func (o *Orchestrator) State(sessionID string) domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[sessionID]; ok {
		return s
	}
	return domain.StateIdle
}

func (o *Orchestrator) setState(sessionID string, s domain.CheckoutState) {
	o.mu.Lock()
	o.states[sessionID] = s
	o.mu.Unlock()
}

// Cart returns the session's cart snapshot.
func (o *Orchestrator) Cart(ctx context.Context, sessionID string) domain.Cart {
	return o.carts.Get(ctx, sessionID)
}

// Submit runs one checkout attempt. Cash-on-delivery completes locally after
// a simulated processing delay; card and UPI delegate to the external
// payment collaborator, which answers with either a redirect target or an
// immediate outcome. On a collaborator error the orchestrator transitions to
// failed and keeps the cart intact for retry.
func (o *Orchestrator) Submit(ctx context.Context, sessionID string, address domain.Address, method domain.PaymentMethod) (domain.SubmitResult, domain.Notice, error) {
	if !method.Valid() {
		return domain.SubmitResult{}, domain.Notice{}, ErrUnsupportedMethod
	}

	snapshot := o.carts.Get(ctx, sessionID)
	if snapshot.IsEmpty() {
		// Refused before any external call is attempted.
		return domain.SubmitResult{}, domain.Notice{}, ErrEmptyCart
	}

	o.setState(sessionID, domain.StateSubmitting)

	orderID := o.recordPendingOrder(ctx, sessionID, address, method, snapshot)

	if method == domain.PaymentMethodCOD {
		select {
		case <-time.After(o.codDelay):
		case <-ctx.Done():
			o.setState(sessionID, domain.StateCollecting)
			return domain.SubmitResult{}, domain.Notice{}, ctx.Err()
		}
		notice := o.complete(ctx, sessionID, method)
		return domain.SubmitResult{Outcome: domain.OutcomeCompleted, OrderID: orderID}, notice, nil
	}

	resp, err := o.payments.CreatePayment(ctx, payment.Request{
		Address:       address,
		Items:         snapshot.Items,
		Total:         snapshot.Total,
		PaymentMethod: string(method),
	})
	if err != nil {
		o.setState(sessionID, domain.StateFailed)
		o.resolvePendingOrder(ctx, sessionID, domain.OrderStatusPaymentFailed)
		o.logger.Error("Payment submission failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return domain.SubmitResult{Outcome: domain.OutcomeFailed, Reason: err.Error()},
			domain.Notice{Title: "Payment Error", Description: err.Error()}, nil
	}

	if method == domain.PaymentMethodCard && resp.RedirectURL != "" {
		// Control passes to the external provider; the terminal state is
		// decided later by the success/canceled callback.
		o.setState(sessionID, domain.StateRedirecting)
		return domain.SubmitResult{Outcome: domain.OutcomeRedirect, RedirectURL: resp.RedirectURL, OrderID: orderID}, domain.Notice{}, nil
	}

	// UPI, or no redirect target provided.
	notice := o.complete(ctx, sessionID, method)
	return domain.SubmitResult{Outcome: domain.OutcomeCompleted, OrderID: orderID}, notice, nil
}

// Reconcile applies a callback signal observed on re-entry to the checkout
// view. Observing the same success signal repeatedly is safe: clearing an
// empty cart is a no-op and the confirmation notice only fires on the first
// transition to completed.
func (o *Orchestrator) Reconcile(ctx context.Context, sessionID string, signal Signal) (domain.CheckoutState, domain.Notice) {
	current := o.State(sessionID)
	snapshot := o.carts.Get(ctx, sessionID)

	next, clear, notice := reconcile(current, snapshot, signal)

	if clear {
		o.carts.Clear(ctx, sessionID)
	}

	if notice != nil {
		switch signal {
		case SignalSuccess:
			o.resolvePendingOrder(ctx, sessionID, domain.OrderStatusCompleted)
		case SignalCanceled:
			o.resolvePendingOrder(ctx, sessionID, domain.OrderStatusCancelled)
		}
	}

	o.setState(sessionID, next)

	if notice == nil {
		return next, domain.Notice{}
	}
	return next, *notice
}

// reconcile is the pure reconciliation step: given the current state, the
// cart snapshot and the observed signal it decides the next state, whether
// the cart must be cleared, and the notice to show. It performs no I/O,
// which keeps the idempotence of repeated success signals directly testable.
func reconcile(state domain.CheckoutState, snapshot domain.Cart, signal Signal) (domain.CheckoutState, bool, *domain.Notice) {
	switch signal {
	case SignalSuccess:
		if state == domain.StateCompleted && snapshot.IsEmpty() {
			// Already reconciled; page refresh must not re-fire.
			return domain.StateCompleted, false, nil
		}
		return domain.StateCompleted, !snapshot.IsEmpty(), &domain.Notice{
			Title:       "Order Placed Successfully",
			Description: "Your order has been processed and is being prepared.",
		}
	case SignalCanceled:
		// Back to collecting with the cart intact.
		return domain.StateCollecting, false, &domain.Notice{
			Title:       "Payment canceled",
			Description: "You have canceled the payment process",
		}
	default:
		if state == domain.StateIdle {
			return domain.StateCollecting, false, nil
		}
		return state, false, nil
	}
}

// complete finishes a locally confirmed payment: clear the cart, resolve the
// pending order and land in the completed state.
func (o *Orchestrator) complete(ctx context.Context, sessionID string, method domain.PaymentMethod) domain.Notice {
	o.carts.Clear(ctx, sessionID)
	o.resolvePendingOrder(ctx, sessionID, domain.OrderStatusCompleted)
	o.setState(sessionID, domain.StateCompleted)
	return domain.Notice{
		Title:       "Order Placed Successfully",
		Description: fmt.Sprintf("Your order has been placed using %s", method.Label()),
	}
}

// recordPendingOrder persists an order row when the session is
// authenticated. Unauthenticated checkout is tolerated: the flow proceeds
// without a server-side record. A storage failure is logged and never blocks
// the submission.
func (o *Orchestrator) recordPendingOrder(ctx context.Context, sessionID string, address domain.Address, method domain.PaymentMethod, snapshot domain.Cart) string {
	user := o.sessions.Current(ctx, sessionID)
	if user == nil {
		return ""
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        user.ID,
		FullName:      address.FullName,
		PhoneNumber:   address.PhoneNumber,
		StreetAddress: address.StreetAddress,
		City:          address.City,
		State:         address.State,
		ZipCode:       address.ZipCode,
		TotalAmount:   int64(math.Round(snapshot.Total * 100)),
		PaymentMethod: method,
		Status:        domain.OrderStatusPending,
		Items:         snapshot.Items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := o.orders.Create(ctx, order); err != nil {
		o.logger.Warn("Failed to record order",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return ""
	}

	o.mu.Lock()
	o.pending[sessionID] = order.ID
	o.mu.Unlock()
	return order.ID.String()
}

// resolvePendingOrder moves the session's pending order to a terminal
// status, if one was recorded.
func (o *Orchestrator) resolvePendingOrder(ctx context.Context, sessionID string, status domain.OrderStatus) {
	o.mu.Lock()
	orderID, ok := o.pending[sessionID]
	if ok {
		delete(o.pending, sessionID)
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	if err := o.orders.UpdateStatus(ctx, orderID, status); err != nil {
		o.logger.Warn("Failed to update order status",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
