package domain

// CartItem is a product plus the quantity selected for purchase. Items are
// uniquely keyed by product ID within a cart and quantity is always >= 1; a
// zero or negative quantity removes the item instead of keeping a dead entry.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price multiplied by quantity for this line.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart is the ordered sequence of items selected for the current session.
// Count and Total are caches derived from Items; they are recomputed after
// every mutation and are never independent state.
type Cart struct {
	Items []CartItem `json:"items"`
	Count int        `json:"count"`
	Total float64    `json:"total"`
}

// Recompute refreshes the derived Count and Total from the item sequence.
func (c *Cart) Recompute() {
	count := 0
	total := 0.0
	for _, item := range c.Items {
		count += item.Quantity
		total += item.Subtotal()
	}
	c.Count = count
	c.Total = total
}

// Find returns the index of the item with the given product ID, or -1.
func (c *Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy of the cart so callers can hold a snapshot
// without observing later mutations.
func (c *Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Count: c.Count, Total: c.Total}
}
