package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const unavailableMessage = "Service temporarily unavailable. Please try again."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns the first failed field into a client message
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		path := verrs[0].Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		return apperr.InvalidInput(fmt.Sprintf("Invalid %s", path))
	}
	return apperr.InvalidInput("Invalid request")
}

// withTimeout bounds one operation. A non-positive timeout only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func unavailable(err error) error {
	return apperr.Unavailable(unavailableMessage, err)
}

// publish emits event and only logs a failure. The state change it describes
// is already committed.
func publish(ctx context.Context, events EventPublisher, logger *zap.Logger, event *models.OrderEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	return util.GetLogger()
}
