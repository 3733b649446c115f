package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPaymentPending, OrderStatusPaymentConfirmed, true},
		{OrderStatusPaymentPending, OrderStatusPaymentNotConfirmed, true},
		{OrderStatusPaymentPending, OrderStatusCanceled, true},
		{OrderStatusPaymentPending, OrderStatusShipped, false},
		{OrderStatusPaymentNotConfirmed, OrderStatusPaymentConfirmed, true},
		{OrderStatusPaymentNotConfirmed, OrderStatusCanceled, true},
		{OrderStatusPaymentConfirmed, OrderStatusShipped, true},
		{OrderStatusPaymentConfirmed, OrderStatusCanceled, false},
		{OrderStatusShipped, OrderStatusComplete, true},
		{OrderStatusShipped, OrderStatusPaymentPending, false},
		{OrderStatusComplete, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusPaymentConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusValidAndTerminal(t *testing.T) {
	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())

	assert.True(t, OrderStatusComplete.Terminal())
	assert.True(t, OrderStatusCanceled.Terminal())
	assert.False(t, OrderStatusPaymentNotConfirmed.Terminal())
}

func TestRateLimitErrorMatchesSentinel(t *testing.T) {
	var err error = &RateLimitError{Result: RateLimitResult{Remaining: 0}}
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualError(t, err, ErrRateLimited.Error())
}
