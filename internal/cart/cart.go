// Package cart holds the authoritative set of line items for one chat
// session. The aggregate is not goroutine safe; the owning session
// serializes access.
package cart

import (
	"github.com/foodiebot/orderchat/internal/domain"
)

type Cart struct {
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{}
}

// Add merges quantity into an existing line with the same id, or appends
// a new line. Quantities below 1 are coerced to 1, so Add never produces
// an invalid line.
func (c *Cart) Add(item domain.CartLine, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.lines {
		if c.lines[i].ID == item.ID {
			c.lines[i].Quantity += quantity
			return
		}
	}
	item.Quantity = quantity
	c.lines = append(c.lines, item)
}

// SetQuantity updates a line in place; a quantity of zero or less removes
// the line. Unknown ids are a no-op.
func (c *Cart) SetQuantity(id int64, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	for i := range c.lines {
		if c.lines[i].ID == id {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Remove(id int64) {
	for i := range c.lines {
		if c.lines[i].ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Total is always recomputed from the current lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the sum of quantities across all lines.
func (c *Cart) Count() int {
	var count int
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Snapshot returns an independent copy of the current lines in insertion
// order. Mutating the returned slice does not affect the cart.
func (c *Cart) Snapshot() []domain.CartLine {
	snapshot := make([]domain.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}
