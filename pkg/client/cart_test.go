package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

func product(price string, colors ...string) model.Product {
	return model.Product{ID: uuid.New(), Title: "Gear", Price: decimal.RequireFromString(price), ColorOptions: colors}
}

func TestCart_AddMergesSameProductAndColor(t *testing.T) {
	var c Cart
	p := product("19.99", "red", "blue")

	require.NoError(t, c.Add(p, 1, "red"))
	require.NoError(t, c.Add(p, 1, "red"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	require.NoError(t, c.Add(p, 1, "blue"))
	assert.Equal(t, 2, c.Len())
}

func TestCart_AddRejectsBadInput(t *testing.T) {
	var c Cart
	p := product("5", "red")

	assert.ErrorIs(t, c.Add(p, 0, "red"), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(p, 1, "green"), ErrInvalidColor)
	assert.Zero(t, c.Len())

	require.NoError(t, c.Add(product("5"), 1, "anything"))
}

func TestCart_UpdateQuantityClampsAtOne(t *testing.T) {
	var c Cart
	p := product("5", "red")
	require.NoError(t, c.Add(p, 3, "red"))

	require.NoError(t, c.UpdateQuantity(p.ID, "red", -10))
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	require.NoError(t, c.UpdateQuantity(p.ID, "red", 4))
	assert.Equal(t, 5, c.Lines()[0].Quantity)

	assert.ErrorIs(t, c.UpdateQuantity(p.ID, "blue", 1), ErrLineNotFound)
}

func TestCart_RemoveAndTotal(t *testing.T) {
	var c Cart
	gear := product("19.99", "red")
	bolt := product("0.10")
	require.NoError(t, c.Add(gear, 2, "red"))
	require.NoError(t, c.Add(bolt, 5, ""))

	assert.Equal(t, "40.48", c.Total().StringFixed(2))

	c.Remove(bolt.ID, "")
	assert.Equal(t, "39.98", c.Total().StringFixed(2))

	c.Remove(bolt.ID, "")
	assert.Equal(t, 1, c.Len())
}

func TestCart_LinesIsACopy(t *testing.T) {
	var c Cart
	p := product("1", "red")
	require.NoError(t, c.Add(p, 1, "red"))

	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestCart_SubtractOnlyOrderedQuantities(t *testing.T) {
	var c Cart
	gear := product("19.99", "red")
	bolt := product("0.10", "red")
	require.NoError(t, c.Add(gear, 2, "red"))
	ordered := c.orderItems()

	require.NoError(t, c.Add(gear, 1, "red"))
	require.NoError(t, c.Add(bolt, 4, "red"))

	c.subtract(ordered)
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, 4, lines[1].Quantity)

	c.subtract([]dto.OrderItemRequest{{ProductID: bolt.ID, Quantity: 4, Color: "red"}})
	c.subtract([]dto.OrderItemRequest{{ProductID: uuid.New(), Quantity: 1, Color: "red"}})
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, gear.ID, c.Lines()[0].Product.ID)
}
