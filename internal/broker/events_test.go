package broker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler_RoutesByType(t *testing.T) {
	order := &models.Order{
		ID:            "order-1",
		OrderNumber:   "EK-250101-000001",
		CustomerEmail: "asha@example.com",
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusApproved,
		TotalPaise:    44700,
	}
	value, err := json.Marshal(models.NewOrderEvent(models.EventTypePaymentApproved, order, "looks good"))
	require.NoError(t, err)

	var got *models.OrderEvent
	eh := NewEventHandler()
	eh.On(models.EventTypePaymentApproved, func(ctx context.Context, e *models.OrderEvent) error {
		got = e
		return nil
	})

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, got)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, models.PaymentStatusApproved, got.PaymentStatus)
	assert.Equal(t, "looks good", got.Remark)
	assert.Equal(t, int64(44700), got.TotalPaise)
}

func TestEventHandler_IgnoresUnregisteredTypes(t *testing.T) {
	value, err := json.Marshal(models.NewOrderEvent(models.EventTypeProofAttached, &models.Order{ID: "o"}, ""))
	require.NoError(t, err)

	eh := NewEventHandler()
	eh.On(models.EventTypeOrderPlaced, func(ctx context.Context, e *models.OrderEvent) error {
		t.Fatal("unexpected call")
		return nil
	})

	assert.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
}

func TestEventHandler_BadPayload(t *testing.T) {
	eh := NewEventHandler()
	assert.Error(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")}))
}
