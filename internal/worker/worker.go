package worker

import (
	"context"
	"strings"

	"github.com/Sivanthsiv/food-ecommerce/internal/broker"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/notify"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker e-mails customers as their orders change
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       notify.Mailer
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, mailer notify.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		mailer:       mailer,
	}

	for _, eventType := range []string{
		models.EventTypeOrderPlaced,
		models.EventTypePaymentApproved,
		models.EventTypePaymentRejected,
		models.EventTypeOrderStatusChanged,
	} {
		w.eventHandler.On(eventType, w.Notify)
	}
	return w
}

// Start consumes until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	util.GetLogger().Info("Stopping notification worker")
	return w.consumer.Close()
}

// Notify sends the customer message for one event
func (w *NotificationWorker) Notify(ctx context.Context, event *models.OrderEvent) error {
	logger := util.GetLogger().With(
		zap.String("event_type", event.EventType),
		zap.String("order_number", event.OrderNumber),
	)

	to := strings.TrimSpace(event.CustomerEmail)
	subject, body, ok := notify.Compose(event)
	if !ok || to == "" {
		return nil
	}

	if err := w.mailer.Send(ctx, to, subject, body); err != nil {
		util.NotificationsSentTotal.WithLabelValues(event.EventType, "error").Inc()
		logger.Error("Failed to send notification", zap.Error(err))
		return err
	}

	util.NotificationsSentTotal.WithLabelValues(event.EventType, "sent").Inc()
	logger.Info("Notification sent")
	return nil
}
