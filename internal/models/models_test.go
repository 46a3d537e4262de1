package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestOrderOwnership(t *testing.T) {
	bound := &Order{AccountID: strPtr("acct-1"), CustomerEmail: "asha@example.com"}
	guest := &Order{CustomerEmail: "Asha@Example.com"}

	tests := []struct {
		name      string
		order     *Order
		accountID string
		email     string
		owner     bool
		holder    bool
	}{
		{"same account", bound, "acct-1", "", true, true},
		{"same email, other account", bound, "acct-2", "asha@example.com", true, false},
		{"stranger", bound, "acct-2", "ravi@example.com", false, false},
		{"guest order by email", guest, "acct-9", "asha@EXAMPLE.com", true, true},
		{"guest order, no email", guest, "acct-9", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.owner, tt.order.IsOwnedBy(tt.accountID, tt.email))
			assert.Equal(t, tt.holder, tt.order.IsProofHolder(tt.accountID, tt.email))
		})
	}
}

func TestOrderCancelled(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusPaymentRejected}).IsCancelled())
	assert.True(t, (&Order{Status: OrderStatusPacked, PaymentStatus: PaymentStatusRejected}).IsCancelled())
	assert.False(t, (&Order{Status: OrderStatusDelivered, PaymentStatus: PaymentStatusApproved}).IsCancelled())
}

func TestParseProductRef(t *testing.T) {
	ref := ParseProductRef(" 3f2b8a4e-6c1d-4e8a-9b7f-2a1c5d9e0b11 ")
	assert.Equal(t, StoreRef, ref.Kind)
	assert.Equal(t, "store:3f2b8a4e-6c1d-4e8a-9b7f-2a1c5d9e0b11", ref.String())

	ref = ParseProductRef("12")
	assert.Equal(t, StaticRef, ref.Kind)
	assert.Equal(t, "12", ref.ID)
}

func TestStatusValues(t *testing.T) {
	assert.Equal(t, 0, OrderStatusConfirmed.StageIndex())
	assert.Equal(t, 4, OrderStatusDelivered.StageIndex())
	assert.False(t, OrderStatusAwaitingPaymentApproval.IsFulfillmentStage())
	assert.True(t, OrderStatusPaymentRejected.Valid())
	assert.False(t, OrderStatus("lost").Valid())

	assert.True(t, PaymentStatusApproved.Terminal())
	assert.False(t, PaymentStatusPendingReview.Terminal())
	assert.False(t, PaymentStatus("refunded").Valid())
}
