package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fakePaymentClient records calls and answers with a canned response.
type fakePaymentClient struct {
	mu       sync.Mutex
	calls    int
	response *payment.Response
	err      error
}

func (f *fakePaymentClient) CreatePayment(ctx context.Context, req payment.Request) (*payment.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakePaymentClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeOrderRepository keeps orders in memory.
type fakeOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (f *fakeOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

type checkoutFixture struct {
	orchestrator *Orchestrator
	carts        *cart.Engine
	sessions     *session.Store
	payments     *fakePaymentClient
	orders       *fakeOrderRepository
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	engine := cart.NewEngine(repository.NewCartStore(client), logger)
	sessions := session.NewStore(
		session.NewMockProvider(0),
		repository.NewSessionStore(client),
		"test-secret",
		logger,
	)
	payments := &fakePaymentClient{response: &payment.Response{}}
	orders := newFakeOrderRepository()

	return &checkoutFixture{
		orchestrator: NewOrchestrator(engine, sessions, payments, orders, time.Millisecond, logger),
		carts:        engine,
		sessions:     sessions,
		payments:     payments,
		orders:       orders,
	}
}

func testAddress() domain.Address {
	return domain.Address{
		FullName:      "Priya Sharma",
		PhoneNumber:   "9876543210",
		StreetAddress: "42 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		ZipCode:       "560001",
	}
}

func addTestItem(t *testing.T, f *checkoutFixture, sessionID string, price float64, qty int) {
	t.Helper()
	f.carts.AddItem(context.Background(), sessionID, domain.Product{
		ID:    "1",
		Title: "Wireless Headphones",
		Price: price,
	}, qty)
}

func TestSubmitRejectsEmptyCartBeforeContactingProvider(t *testing.T) {
	f := newCheckoutFixture(t)

	_, _, err := f.orchestrator.Submit(context.Background(), "session-empty", testAddress(), domain.PaymentMethodCard)

	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("Expected ErrEmptyCart, got %v", err)
	}
	if f.payments.callCount() != 0 {
		t.Errorf("Expected no provider calls for an empty cart, got %d", f.payments.callCount())
	}
}

func TestSubmitRejectsUnknownPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t)
	addTestItem(t, f, "session-method", 999, 1)

	_, _, err := f.orchestrator.Submit(context.Background(), "session-method", testAddress(), domain.PaymentMethod("cheque"))

	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("Expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestCashOnDeliveryCompletesWithoutProvider(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	sessionID := "session-cod"
	addTestItem(t, f, sessionID, 12999, 2)

	result, notice, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCOD)

	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Outcome != domain.OutcomeCompleted {
		t.Errorf("Expected completed outcome, got %s", result.Outcome)
	}
	if f.payments.callCount() != 0 {
		t.Errorf("Cash on delivery must not contact the provider, got %d calls", f.payments.callCount())
	}
	if got := f.orchestrator.State(sessionID); got != domain.StateCompleted {
		t.Errorf("Expected completed state, got %s", got)
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); !cart.IsEmpty() {
		t.Error("Expected cart to be cleared after completion")
	}
	if notice.Title != "Order Placed Successfully" {
		t.Errorf("Unexpected notice title: %q", notice.Title)
	}
}

func TestCardRedirectKeepsCartIntact(t *testing.T) {
	f := newCheckoutFixture(t)
	f.payments.response = &payment.Response{RedirectURL: "https://pay.example.com/cs_123"}
	ctx := context.Background()
	sessionID := "session-card"
	addTestItem(t, f, sessionID, 499, 3)

	result, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCard)

	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Outcome != domain.OutcomeRedirect {
		t.Fatalf("Expected redirect outcome, got %s", result.Outcome)
	}
	if result.RedirectURL != "https://pay.example.com/cs_123" {
		t.Errorf("Unexpected redirect URL: %q", result.RedirectURL)
	}
	if got := f.orchestrator.State(sessionID); got != domain.StateRedirecting {
		t.Errorf("Expected redirecting state, got %s", got)
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); cart.IsEmpty() {
		t.Error("Cart must stay intact until the success callback")
	}
}

func TestUPICompletesImmediately(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	sessionID := "session-upi"
	addTestItem(t, f, sessionID, 999, 1)

	result, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodUPI)

	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Outcome != domain.OutcomeCompleted {
		t.Errorf("Expected completed outcome, got %s", result.Outcome)
	}
	if f.payments.callCount() != 1 {
		t.Errorf("Expected one provider call, got %d", f.payments.callCount())
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); !cart.IsEmpty() {
		t.Error("Expected cart to be cleared after completion")
	}
}

func TestProviderErrorPreservesCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.payments.err = errors.New("payment processing failed: card declined")
	ctx := context.Background()
	sessionID := "session-declined"
	addTestItem(t, f, sessionID, 12999, 1)

	result, notice, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCard)

	if err != nil {
		t.Fatalf("Submit returned transport error instead of failed outcome: %v", err)
	}
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("Expected failed outcome, got %s", result.Outcome)
	}
	if notice.Title != "Payment Error" {
		t.Errorf("Unexpected notice title: %q", notice.Title)
	}
	if got := f.orchestrator.State(sessionID); got != domain.StateFailed {
		t.Errorf("Expected failed state, got %s", got)
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); cart.IsEmpty() {
		t.Error("Cart must survive a failed attempt so the shopper can retry")
	}
}

func TestSuccessCallbackIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	f.payments.response = &payment.Response{RedirectURL: "https://pay.example.com/cs_456"}
	ctx := context.Background()
	sessionID := "session-idem"
	addTestItem(t, f, sessionID, 2499, 2)

	if _, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCard); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	state, notice := f.orchestrator.Reconcile(ctx, sessionID, SignalSuccess)
	if state != domain.StateCompleted {
		t.Fatalf("Expected completed state after success signal, got %s", state)
	}
	if notice == (domain.Notice{}) {
		t.Error("Expected a confirmation notice on the first success signal")
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); !cart.IsEmpty() {
		t.Error("Expected cart cleared on success")
	}

	// A page refresh re-delivers the same signal. State must not change and
	// the notice must not re-fire.
	state, notice = f.orchestrator.Reconcile(ctx, sessionID, SignalSuccess)
	if state != domain.StateCompleted {
		t.Errorf("Expected state to remain completed, got %s", state)
	}
	if notice != (domain.Notice{}) {
		t.Errorf("Expected no notice on repeated success signal, got %+v", notice)
	}
}

func TestCanceledCallbackReturnsToCollecting(t *testing.T) {
	f := newCheckoutFixture(t)
	f.payments.response = &payment.Response{RedirectURL: "https://pay.example.com/cs_789"}
	ctx := context.Background()
	sessionID := "session-cancel"
	addTestItem(t, f, sessionID, 899, 1)

	if _, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCard); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	state, notice := f.orchestrator.Reconcile(ctx, sessionID, SignalCanceled)

	if state != domain.StateCollecting {
		t.Errorf("Expected collecting state after cancellation, got %s", state)
	}
	if notice.Title != "Payment canceled" {
		t.Errorf("Unexpected notice title: %q", notice.Title)
	}
	if cart := f.orchestrator.Cart(ctx, sessionID); cart.IsEmpty() {
		t.Error("Cart must stay intact after cancellation")
	}
}

func TestReconcileWithoutSignalStartsCollecting(t *testing.T) {
	f := newCheckoutFixture(t)

	state, notice := f.orchestrator.Reconcile(context.Background(), "session-fresh", SignalNone)

	if state != domain.StateCollecting {
		t.Errorf("Expected collecting state for a fresh session, got %s", state)
	}
	if notice != (domain.Notice{}) {
		t.Errorf("Expected no notice, got %+v", notice)
	}
}

func TestAuthenticatedSubmitRecordsOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	sessionID := "session-order"

	user, _, err := f.sessions.Login(ctx, sessionID, "priya@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	addTestItem(t, f, sessionID, 129.99, 3)

	result, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCOD)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.OrderID == "" {
		t.Fatal("Expected an order ID for an authenticated checkout")
	}

	orderID, err := uuid.Parse(result.OrderID)
	if err != nil {
		t.Fatalf("Order ID is not a UUID: %v", err)
	}

	order, err := f.orders.FindByID(ctx, orderID)
	if err != nil {
		t.Fatalf("Order was not recorded: %v", err)
	}
	if order.UserID != user.ID {
		t.Errorf("Expected order for user %s, got %s", user.ID, order.UserID)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("Expected completed order, got %s", order.Status)
	}
	// 129.99 * 3 = 389.97, stored in minor units.
	if order.TotalAmount != 38997 {
		t.Errorf("Expected total 38997, got %d", order.TotalAmount)
	}
}

func TestAnonymousSubmitRecordsNoOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	sessionID := "session-anon"
	addTestItem(t, f, sessionID, 999, 1)

	result, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCOD)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.OrderID != "" {
		t.Errorf("Expected no order ID for anonymous checkout, got %q", result.OrderID)
	}
	if len(f.orders.orders) != 0 {
		t.Errorf("Expected no recorded orders, got %d", len(f.orders.orders))
	}
}

func TestPaymentFailureMarksPendingOrderFailed(t *testing.T) {
	f := newCheckoutFixture(t)
	f.payments.err = errors.New("payment processing failed: provider returned status 500")
	ctx := context.Background()
	sessionID := "session-failed-order"

	if _, _, err := f.sessions.Login(ctx, sessionID, "priya@example.com", "secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	addTestItem(t, f, sessionID, 999, 1)

	result, _, err := f.orchestrator.Submit(ctx, sessionID, testAddress(), domain.PaymentMethodCard)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("Expected failed outcome, got %s", result.Outcome)
	}

	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()
	if len(f.orders.orders) != 1 {
		t.Fatalf("Expected one recorded order, got %d", len(f.orders.orders))
	}
	for _, order := range f.orders.orders {
		if order.Status != domain.OrderStatusPaymentFailed {
			t.Errorf("Expected payment_failed status, got %s", order.Status)
		}
	}
}

func TestReconcilePureFunction(t *testing.T) {
	loaded := domain.Cart{Items: []domain.CartItem{{Quantity: 1}}, Count: 1}
	empty := domain.Cart{}

	tests := []struct {
		name      string
		state     domain.CheckoutState
		cart      domain.Cart
		signal    Signal
		wantState domain.CheckoutState
		wantClear bool
		wantNote  bool
	}{
		{"success clears a loaded cart", domain.StateRedirecting, loaded, SignalSuccess, domain.StateCompleted, true, true},
		{"repeated success is silent", domain.StateCompleted, empty, SignalSuccess, domain.StateCompleted, false, false},
		{"canceled keeps the cart", domain.StateRedirecting, loaded, SignalCanceled, domain.StateCollecting, false, true},
		{"no signal promotes idle", domain.StateIdle, loaded, SignalNone, domain.StateCollecting, false, false},
		{"no signal preserves failed", domain.StateFailed, loaded, SignalNone, domain.StateFailed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, clear, notice := reconcile(tt.state, tt.cart, tt.signal)
			if next != tt.wantState {
				t.Errorf("Expected state %s, got %s", tt.wantState, next)
			}
			if clear != tt.wantClear {
				t.Errorf("Expected clear=%v, got %v", tt.wantClear, clear)
			}
			if (notice != nil) != tt.wantNote {
				t.Errorf("Expected notice=%v, got %+v", tt.wantNote, notice)
			}
		})
	}
}
