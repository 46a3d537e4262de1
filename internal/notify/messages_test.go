package notify

import (
	"testing"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "₹447.00", FormatPaise(44700))
	assert.Equal(t, "₹0.05", FormatPaise(5))
	assert.Equal(t, "-₹1.50", FormatPaise(-150))
}

func TestCompose(t *testing.T) {
	order := &models.Order{
		OrderNumber:  "EK-250101-000001",
		CustomerName: "Asha",
		TotalPaise:   44700,
		Status:       models.OrderStatusOutForDelivery,
	}

	subject, body, ok := Compose(models.NewOrderEvent(models.EventTypeOrderPlaced, order, ""))
	assert.True(t, ok)
	assert.Equal(t, "Order EK-250101-000001 received", subject)
	assert.Contains(t, body, "Hello Asha")
	assert.Contains(t, body, "₹447.00")

	_, body, ok = Compose(models.NewOrderEvent(models.EventTypePaymentRejected, order, "UTR not found"))
	assert.True(t, ok)
	assert.Contains(t, body, "Reason: UTR not found")

	subject, _, ok = Compose(models.NewOrderEvent(models.EventTypeOrderStatusChanged, order, ""))
	assert.True(t, ok)
	assert.Equal(t, "Order EK-250101-000001 is out for delivery", subject)

	_, _, ok = Compose(models.NewOrderEvent(models.EventTypeProofAttached, order, ""))
	assert.False(t, ok)
}
