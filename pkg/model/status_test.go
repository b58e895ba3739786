package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Transition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		wantErr  error
	}{
		{OrderStatusPending, OrderStatusProcessing, nil},
		{OrderStatusPending, OrderStatusCancelled, nil},
		{OrderStatusProcessing, OrderStatusShipped, nil},
		{OrderStatusProcessing, OrderStatusCancelled, nil},
		{OrderStatusShipped, OrderStatusDelivered, nil},
		{OrderStatusPending, OrderStatusPending, ErrIllegalTransition},
		{OrderStatusShipped, OrderStatusProcessing, ErrIllegalTransition},
		{OrderStatusPending, OrderStatusDelivered, ErrIllegalTransition},
		{OrderStatusShipped, OrderStatusCancelled, ErrIllegalTransition},
		{OrderStatusDelivered, OrderStatusCancelled, ErrIllegalTransition},
		{OrderStatusCancelled, OrderStatusPending, ErrIllegalTransition},
		{OrderStatusPending, OrderStatus("lost"), ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.Transition(tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, st)

	_, err = ParseOrderStatus("Shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
}

func TestProduct_RecomputeRating(t *testing.T) {
	p := &Product{}
	p.RecomputeRating()
	assert.Equal(t, 0.0, p.Rating)

	p.Reviews = []Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	p.RecomputeRating()
	assert.Equal(t, 4.3, p.Rating)
}

func TestOrder_VisibleTo(t *testing.T) {
	buyer, seller, stranger := uuid.New(), uuid.New(), uuid.New()
	o := &Order{UserID: buyer, Items: []OrderItem{
		{SellerID: seller, Quantity: 1, Price: decimal.NewFromInt(3)},
		{SellerID: seller, Quantity: 2, Price: decimal.NewFromInt(1)},
	}}

	assert.True(t, o.VisibleTo(buyer))
	assert.True(t, o.VisibleTo(seller))
	assert.False(t, o.VisibleTo(stranger))
	assert.Equal(t, []uuid.UUID{seller}, o.SellerIDs())
}

func TestReel_ToggleLike(t *testing.T) {
	r := &Reel{}
	u := uuid.New()

	assert.True(t, r.ToggleLike(u))
	assert.Len(t, r.Likes, 1)
	assert.False(t, r.ToggleLike(u))
	assert.Empty(t, r.Likes)
}
