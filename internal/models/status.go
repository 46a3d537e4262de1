package models

// PaymentStatus is the outcome of the manual payment review
type PaymentStatus string

const (
	PaymentStatusPendingReview PaymentStatus = "pending_review"
	PaymentStatusApproved      PaymentStatus = "approved"
	PaymentStatusRejected      PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPendingReview, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the review has been decided.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// OrderStatus is the lifecycle/fulfillment label of an order
type OrderStatus string

const (
	OrderStatusAwaitingPaymentApproval OrderStatus = "awaiting_payment_approval"
	OrderStatusConfirmed               OrderStatus = "confirmed"
	OrderStatusPacked                  OrderStatus = "packed"
	OrderStatusShipped                 OrderStatus = "shipped"
	OrderStatusOutForDelivery          OrderStatus = "out_for_delivery"
	OrderStatusDelivered               OrderStatus = "delivered"
	OrderStatusPaymentRejected         OrderStatus = "payment_rejected"
)

// FulfillmentStages is the canonical delivery sequence after payment approval.
var FulfillmentStages = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	return s == OrderStatusAwaitingPaymentApproval || s == OrderStatusPaymentRejected || s.IsFulfillmentStage()
}

func (s OrderStatus) IsFulfillmentStage() bool {
	return s.StageIndex() >= 0
}

// StageIndex returns the position of s in FulfillmentStages, or -1.
func (s OrderStatus) StageIndex() int {
	for i, stage := range FulfillmentStages {
		if stage == s {
			return i
		}
	}
	return -1
}
