package transport

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart request payload
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// SetQuantityRequest represents the quantity update request payload
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles HTTP requests for cart operations
type CartHandler struct {
	engine  *cart.Engine
	catalog *catalog.Store
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(engine *cart.Engine, catalogStore *catalog.Store, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		engine:  engine,
		catalog: catalogStore,
		logger:  logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

// GetCart returns the session's cart with derived count and total
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.engine.Get(r.Context(), sessionID))
}

// AddItem adds a catalog product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add item validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.ProductByID(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	snapshot, notice := h.engine.AddItem(r.Context(), sessionID, product, req.Quantity)

	h.logger.Info("Cart item added",
		zap.String("session_id", sessionID),
		zap.String("product_id", product.ID),
		zap.Int("count", snapshot.Count),
	)
	middleware.RespondWithNotice(w, http.StatusOK, notice, snapshot)
}

// SetQuantity overwrites an item's quantity; zero or less removes it
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	productID := chi.URLParam(r, "productID")

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Set quantity decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, notice := h.engine.SetQuantity(r.Context(), sessionID, productID, req.Quantity)
	middleware.RespondWithNotice(w, http.StatusOK, notice, snapshot)
}

// RemoveItem deletes an item from the cart; removing an absent item succeeds
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	productID := chi.URLParam(r, "productID")
	snapshot, notice := h.engine.RemoveItem(r.Context(), sessionID, productID)
	middleware.RespondWithNotice(w, http.StatusOK, notice, snapshot)
}

// ClearCart empties the session's cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}

	snapshot, notice := h.engine.Clear(r.Context(), sessionID)
	middleware.RespondWithNotice(w, http.StatusOK, notice, snapshot)
}
