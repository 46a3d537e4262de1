package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            "order-1",
		OrderNumber:   "EK-250101-000001",
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
		TotalPaise:    44700,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusApproved,
	}
}

func TestNotify_SendsToCustomer(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, "asha@example.com", "Payment approved for order EK-250101-000001", mock.AnythingOfType("string")).
		Return(nil)

	w := NewNotificationWorker(nil, mailer)
	err := w.Notify(context.Background(), models.NewOrderEvent(models.EventTypePaymentApproved, testOrder(), ""))

	assert.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestNotify_SkipsSilentEvents(t *testing.T) {
	mailer := new(MockMailer)

	w := NewNotificationWorker(nil, mailer)
	err := w.Notify(context.Background(), models.NewOrderEvent(models.EventTypeProofAttached, testOrder(), ""))

	assert.NoError(t, err)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_ReturnsMailerError(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	w := NewNotificationWorker(nil, mailer)
	err := w.Notify(context.Background(), models.NewOrderEvent(models.EventTypeOrderPlaced, testOrder(), ""))

	assert.EqualError(t, err, "smtp down")
}
