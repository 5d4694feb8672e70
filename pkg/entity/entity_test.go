package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName_Tables(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "payments", Payments.RawTable())
	assert.Equal(t, "transformed_order_items", OrderItems.TransformedTable())
	assert.Equal(t, "orders", Orders.String())
}

func TestAll_OrdersAfterFeedbacks(t *testing.T) {
	t.Parallel()

	require.Len(t, All, 7)
	assert.Equal(t, Orders, All[len(All)-1])
	assert.Contains(t, All[:len(All)-1], Feedbacks)
}
