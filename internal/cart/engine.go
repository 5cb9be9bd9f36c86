package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// Engine owns the cart line items for every active session. The in-memory
// cart is authoritative; every mutation recomputes the derived count/total
// and writes the full snapshot through to durable storage. A failed write is
// logged and never surfaced to the shopper.
type Engine struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart

	store  repository.CartStore
	logger *zap.Logger
}

// NewEngine creates a cart engine backed by the given snapshot store.
func NewEngine(store repository.CartStore, logger *zap.Logger) *Engine {
	return &Engine{
		carts:  make(map[string]*domain.Cart),
		store:  store,
		logger: logger,
	}
}

// cart returns the in-memory cart for a session, loading the durable
// snapshot on first touch. A missing or corrupt snapshot fails open to an
// empty cart; it must never take down the session.
func (e *Engine) cart(ctx context.Context, sessionID string) *domain.Cart {
	if c, ok := e.carts[sessionID]; ok {
		return c
	}

	c := &domain.Cart{}
	loaded, err := e.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		*c = loaded
	case errors.Is(err, repository.ErrCartNotFound):
		// First visit, start empty.
	case errors.Is(err, repository.ErrCartCorrupt):
		e.logger.Warn("Discarding corrupt cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	default:
		e.logger.Warn("Failed to load cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	e.carts[sessionID] = c
	return c
}

// persist writes the current snapshot through to durable storage. Failures
// are warnings only; the in-memory cart stays authoritative.
func (e *Engine) persist(ctx context.Context, sessionID string, c *domain.Cart) {
	if err := e.store.Save(ctx, sessionID, *c); err != nil {
		e.logger.Warn("Failed to persist cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// Get returns a snapshot of the session's cart.
func (e *Engine) Get(ctx context.Context, sessionID string) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart(ctx, sessionID).Clone()
}

// AddItem adds a product to the cart, merging with an existing line for the
// same product ID. Quantities below one default to one so this path can
// never produce an invalid line.
func (e *Engine) AddItem(ctx context.Context, sessionID string, product domain.Product, quantity int) (domain.Cart, domain.Notice) {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.cart(ctx, sessionID)
	var notice domain.Notice

	if i := c.Find(product.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		notice = domain.Notice{
			Title:       "Item updated",
			Description: fmt.Sprintf("%s quantity increased to %d", product.Title, c.Items[i].Quantity),
		}
	} else {
		c.Items = append(c.Items, domain.CartItem{Product: product, Quantity: quantity})
		notice = domain.Notice{
			Title:       "Item added to cart",
			Description: fmt.Sprintf("%s added to your cart", product.Title),
		}
	}

	c.Recompute()
	e.persist(ctx, sessionID, c)
	return c.Clone(), notice
}

// RemoveItem deletes the line for a product ID. Removing an absent item is a
// no-op, not an error.
func (e *Engine) RemoveItem(ctx context.Context, sessionID, productID string) (domain.Cart, domain.Notice) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.cart(ctx, sessionID)
	var notice domain.Notice

	if i := c.Find(productID); i >= 0 {
		notice = domain.Notice{
			Title:       "Item removed",
			Description: fmt.Sprintf("%s removed from your cart", c.Items[i].Title),
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.Recompute()
		e.persist(ctx, sessionID, c)
	}

	return c.Clone(), notice
}

// SetQuantity overwrites the quantity for a product. A quantity of zero or
// less removes the item entirely.
func (e *Engine) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (domain.Cart, domain.Notice) {
	if quantity <= 0 {
		return e.RemoveItem(ctx, sessionID, productID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.cart(ctx, sessionID)
	var notice domain.Notice

	if i := c.Find(productID); i >= 0 {
		c.Items[i].Quantity = quantity
		notice = domain.Notice{
			Title:       "Item updated",
			Description: fmt.Sprintf("%s quantity set to %d", c.Items[i].Title, quantity),
		}
		c.Recompute()
		e.persist(ctx, sessionID, c)
	}

	return c.Clone(), notice
}

// Clear empties the cart. Clearing an already-empty cart is a no-op so the
// checkout success callback can be observed any number of times.
func (e *Engine) Clear(ctx context.Context, sessionID string) (domain.Cart, domain.Notice) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.cart(ctx, sessionID)
	var notice domain.Notice

	if !c.IsEmpty() {
		c.Items = nil
		c.Recompute()
		e.persist(ctx, sessionID, c)
		notice = domain.Notice{
			Title:       "Cart cleared",
			Description: "All items have been removed from your cart",
		}
	}

	return c.Clone(), notice
}
