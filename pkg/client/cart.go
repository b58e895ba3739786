package client

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidColor    = errors.New("color is not offered for this product")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Line is one product in one color. Product is the snapshot taken when the
// line was first added; its price is what Total uses.
type Line struct {
	Product  model.Product
	Quantity int
	Color    string
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order. It is not safe for concurrent use;
// Session serializes access.
type Cart struct {
	lines []Line
}

func (c *Cart) index(productID uuid.UUID, color string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool {
		return l.Product.ID == productID && l.Color == color
	})
}

// Add merges into an existing line with the same product and color, or
// appends a new one.
func (c *Cart) Add(product model.Product, quantity int, color string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if len(product.ColorOptions) > 0 && !slices.Contains(product.ColorOptions, color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	if i := c.index(product.ID, color); i >= 0 {
		c.lines[i].Quantity += quantity
		return nil
	}
	c.lines = append(c.lines, Line{Product: product, Quantity: quantity, Color: color})
	return nil
}

// UpdateQuantity adjusts a line by delta, never going below 1. Use Remove
// to drop a line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, color string, delta int) error {
	i := c.index(productID, color)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines[i].Quantity = max(1, c.lines[i].Quantity+delta)
	return nil
}

func (c *Cart) Remove(productID uuid.UUID, color string) {
	if i := c.index(productID, color); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// subtract takes ordered quantities off their lines, dropping lines that
// reach zero. Quantities added after the order was built stay in the cart.
func (c *Cart) subtract(items []dto.OrderItemRequest) {
	for _, item := range items {
		i := c.index(item.ProductID, item.Color)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity > item.Quantity {
			c.lines[i].Quantity -= item.Quantity
			continue
		}
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

func (c *Cart) orderItems() []dto.OrderItemRequest {
	items := make([]dto.OrderItemRequest, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, dto.OrderItemRequest{ProductID: l.Product.ID, Quantity: l.Quantity, Color: l.Color})
	}
	return items
}
