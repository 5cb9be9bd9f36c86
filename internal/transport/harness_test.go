package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

// stubPaymentClient answers every submission with a canned response.
type stubPaymentClient struct {
	mu       sync.Mutex
	calls    int
	response *payment.Response
	err      error
}

func (s *stubPaymentClient) CreatePayment(ctx context.Context, req payment.Request) (*payment.Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// memoryOrderRepository keeps orders in memory for handler tests.
type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newMemoryOrderRepository() *memoryOrderRepository {
	return &memoryOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *memoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *memoryOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *memoryOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *memoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

// apiHarness wires the full router the way the server does, with the payment
// provider and order storage replaced by in-memory fakes.
type apiHarness struct {
	router   chi.Router
	payments *stubPaymentClient
	orders   *memoryOrderRepository
	sessions *session.Store
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()

	catalogStore, err := catalog.NewStore()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	engine := cart.NewEngine(repository.NewCartStore(client), logger)
	sessions := session.NewStore(
		session.NewMockProvider(0),
		repository.NewSessionStore(client),
		testJWTSecret,
		logger,
	)
	payments := &stubPaymentClient{response: &payment.Response{}}
	orders := newMemoryOrderRepository()
	orchestrator := checkout.NewOrchestrator(engine, sessions, payments, orders, time.Millisecond, logger)

	router := chi.NewRouter()
	router.Use(middleware.SessionMiddleware(testJWTSecret, logger))

	requireAuth := middleware.RequireAuth(logger)

	NewCatalogHandler(catalogStore, logger).RegisterRoutes(router)
	NewCartHandler(engine, catalogStore, logger).RegisterRoutes(router)
	NewAuthHandler(sessions, logger).RegisterRoutes(router, requireAuth)
	NewCheckoutHandler(orchestrator, orders, logger).RegisterRoutes(router, requireAuth)

	return &apiHarness{
		router:   router,
		payments: payments,
		orders:   orders,
		sessions: sessions,
	}
}

// do performs a request with an optional JSON body and sticky session ID.
func (h *apiHarness) do(t *testing.T, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// doAuthed performs a request carrying a bearer token.
func (h *apiHarness) doAuthed(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func validAddress() map[string]interface{} {
	return map[string]interface{}{
		"full_name":      "Priya Sharma",
		"phone_number":   "9876543210",
		"street_address": "42 MG Road",
		"city":           "Bengaluru",
		"state":          "Karnataka",
		"zip_code":       "560001",
	}
}
