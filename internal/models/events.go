package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeProofAttached      = "PROOF_ATTACHED"
	EventTypePaymentApproved    = "PAYMENT_APPROVED"
	EventTypePaymentRejected    = "PAYMENT_REJECTED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published whenever an order is placed or changes state
type OrderEvent struct {
	BaseEvent
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalPaise    int64         `json:"total_paise"`
	Remark        string        `json:"remark,omitempty"`
}

// NewOrderEvent snapshots o into an event of the given type
func NewOrderEvent(eventType string, o *Order, remark string) *OrderEvent {
	return &OrderEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.NewString(),
			EventType: eventType,
			Timestamp: time.Now().UTC(),
		},
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalPaise:    o.TotalPaise,
		Remark:        remark,
	}
}
