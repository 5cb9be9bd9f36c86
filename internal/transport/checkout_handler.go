package transport

import (
	"errors"
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubmitRequest represents the checkout submission payload
type SubmitRequest struct {
	Address       domain.Address `json:"address" validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=card upi cod"`
}

// CallbackResponse represents the result of reconciling a callback signal
type CallbackResponse struct {
	State  domain.CheckoutState `json:"state"`
	Notice *domain.Notice       `json:"notice,omitempty"`
	Cart   domain.Cart          `json:"cart"`
}

// CheckoutHandler handles HTTP requests for the checkout flow
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	orders       repository.OrderRepository
	logger       *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(orchestrator *checkout.Orchestrator, orders repository.OrderRepository, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		orders:       orders,
		logger:       logger,
	}
}

// RegisterRoutes registers all checkout routes
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/checkout", h.Submit)
	r.Get("/api/checkout/callback", h.Callback)
	r.Get("/api/checkout/state", h.State)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/orders", h.ListOrders)
	})
}

// Submit runs one checkout attempt for the session's cart
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	var req SubmitRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, notice, err := h.orchestrator.Submit(r.Context(), sessionID, req.Address, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			middleware.RespondWithError(w, http.StatusBadRequest, "your cart is empty, add some products before checking out")
			return
		}
		if errors.Is(err, checkout.ErrUnsupportedMethod) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported payment method")
			return
		}

		h.logger.Error("Checkout submission failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to process checkout")
		return
	}

	if result.Outcome == domain.OutcomeFailed {
		// The cart is preserved; the shopper may retry.
		middleware.RespondWithNotice(w, http.StatusBadGateway, notice, result)
		return
	}

	middleware.RespondWithNotice(w, http.StatusOK, notice, result)
}

// Callback reconciles the success/canceled query signals observed when the
// shopper returns from the external payment provider. It is safe to call
// repeatedly with the same signal.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	signal := checkout.SignalNone
	if r.URL.Query().Get("success") != "" {
		signal = checkout.SignalSuccess
	} else if r.URL.Query().Get("canceled") != "" {
		signal = checkout.SignalCanceled
	}

	state, notice := h.orchestrator.Reconcile(r.Context(), sessionID, signal)

	resp := CallbackResponse{
		State: state,
		Cart:  h.orchestrator.Cart(r.Context(), sessionID),
	}
	if notice != (domain.Notice{}) {
		resp.Notice = &notice
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// State returns the session's current checkout state
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"state": string(h.orchestrator.State(sessionID)),
	})
}

// ListOrders returns the authenticated user's order history
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}
