package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Publish publishes an order event keyed by order so one order's events stay ordered
func (ep *EventPublisher) Publish(ctx context.Context, event *models.OrderEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// OrderEventFunc handles one decoded order event
type OrderEventFunc func(context.Context, *models.OrderEvent) error

// EventHandler routes incoming events by type
type EventHandler struct {
	handlers map[string]OrderEventFunc
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{handlers: make(map[string]OrderEventFunc)}
}

// On registers handler for eventType, replacing any previous one
func (eh *EventHandler) On(eventType string, handler OrderEventFunc) {
	eh.handlers[eventType] = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	handler, ok := eh.handlers[baseEvent.EventType]
	if !ok {
		logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
		return nil
	}

	logger.Info("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID),
	)

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
	}
	return handler(ctx, &event)
}
