package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	maxRemarkLength = 500

	paymentAlreadyReviewed = "Payment already reviewed"
)

// AdminUpdateInput is an admin edit of one order. Either field may be empty;
// a payment decision is applied before a fulfillment stage.
type AdminUpdateInput struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	Remark        string `json:"remark"`
}

// ReviewService applies admin payment decisions and fulfillment updates
type ReviewService struct {
	orders  OrderStore
	events  EventPublisher
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewReviewService(orders OrderStore, events EventPublisher, timeout time.Duration) *ReviewService {
	return &ReviewService{
		orders:  orders,
		events:  events,
		timeout: timeout,
		logger:  newLogger(),
		now:     time.Now,
	}
}

// Approve marks a pending payment approved and confirms the order
func (s *ReviewService) Approve(ctx context.Context, orderID string, caller *auth.Identity, remark string) (*models.Order, error) {
	return s.ReviewPayment(ctx, orderID, models.PaymentStatusApproved, caller, remark)
}

// Reject marks a pending payment rejected and cancels the order
func (s *ReviewService) Reject(ctx context.Context, orderID string, caller *auth.Identity, remark string) (*models.Order, error) {
	return s.ReviewPayment(ctx, orderID, models.PaymentStatusRejected, caller, remark)
}

// ReviewPayment moves a payment out of pending review. Repeating the decision
// already recorded is a no-op; reversing it is refused.
func (s *ReviewService) ReviewPayment(ctx context.Context, orderID string, outcome models.PaymentStatus, caller *auth.Identity, remark string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.ReviewPayment",
		attribute.String("order_id", orderID),
		attribute.String("outcome", string(outcome)))
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Admin() {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if !outcome.Terminal() {
		return nil, apperr.InvalidInput("Payment status can only be set to approved or rejected")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperr.InvalidInput("Invalid order id")
	}
	remark = strings.TrimSpace(remark)
	if utf8.RuneCountInString(remark) > maxRemarkLength {
		return nil, apperr.InvalidInput("Remark is too long")
	}

	d := models.PaymentDecision{
		Outcome:     outcome,
		OrderStatus: models.OrderStatusPaymentRejected,
		VerifiedBy:  caller.Label(),
	}
	if remark != "" {
		d.Remark = &remark
	}
	if outcome == models.PaymentStatusApproved {
		now := s.now().UTC()
		d.VerifiedAt = &now
		d.OrderStatus = models.OrderStatusConfirmed
	}

	order, changed, err := s.orders.ReviewPayment(ctx, orderID, d)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, unavailable(err)
	}

	if !changed {
		switch order.PaymentStatus {
		case outcome:
			return order, nil
		case models.PaymentStatusPendingReview:
			return nil, unavailable(fmt.Errorf("payment review for order %s did not apply", orderID))
		default:
			return nil, apperr.InvalidInput(paymentAlreadyReviewed)
		}
	}

	util.PaymentReviewsTotal.WithLabelValues(string(outcome)).Inc()
	s.logger.Info("Payment reviewed",
		zap.String("order_id", order.ID),
		zap.String("outcome", string(outcome)),
		zap.String("status", string(order.Status)),
		zap.String("verified_by", d.VerifiedBy))

	eventType := models.EventTypePaymentApproved
	if outcome == models.PaymentStatusRejected {
		eventType = models.EventTypePaymentRejected
	}
	publish(ctx, s.events, s.logger, models.NewOrderEvent(eventType, order, remark))
	return order, nil
}

// UpdateFulfillment sets the delivery stage. Stages may move in either
// direction, but never on an order whose payment was rejected.
func (s *ReviewService) UpdateFulfillment(ctx context.Context, orderID string, stage models.OrderStatus, caller *auth.Identity) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.UpdateFulfillment",
		attribute.String("order_id", orderID),
		attribute.String("stage", string(stage)))
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Admin() {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if !stage.IsFulfillmentStage() {
		return nil, apperr.InvalidInput("Invalid status")
	}

	order, changed, err := s.orders.SetFulfillmentStatus(ctx, strings.TrimSpace(orderID), stage)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, unavailable(err)
	}

	if !changed {
		if order.IsCancelled() {
			return nil, apperr.InvalidInput("Order was cancelled after payment rejection")
		}
		return order, nil
	}

	util.FulfillmentUpdatesTotal.WithLabelValues(string(stage)).Inc()
	s.logger.Info("Fulfillment updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)))

	publish(ctx, s.events, s.logger, models.NewOrderEvent(models.EventTypeOrderStatusChanged, order, ""))
	return order, nil
}

// AdminUpdate applies the payment decision and then the stage in in
func (s *ReviewService) AdminUpdate(ctx context.Context, orderID string, in AdminUpdateInput, caller *auth.Identity) (*models.Order, error) {
	if !caller.Admin() {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	paymentStatus := models.PaymentStatus(strings.ToLower(strings.TrimSpace(in.PaymentStatus)))
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if paymentStatus == "" && status == "" {
		return nil, apperr.InvalidInput("Invalid input")
	}
	// Nothing is written unless the whole request is valid.
	if paymentStatus != "" && !paymentStatus.Terminal() {
		return nil, apperr.InvalidInput("Payment status can only be set to approved or rejected")
	}
	if status != "" && !status.IsFulfillmentStage() {
		return nil, apperr.InvalidInput("Invalid status")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Remark)) > maxRemarkLength {
		return nil, apperr.InvalidInput("Remark is too long")
	}

	var order *models.Order
	var err error
	if paymentStatus != "" {
		if order, err = s.ReviewPayment(ctx, orderID, paymentStatus, caller, in.Remark); err != nil {
			return nil, err
		}
	}
	if status != "" {
		if order, err = s.UpdateFulfillment(ctx, orderID, status, caller); err != nil {
			return nil, err
		}
	}
	return order, nil
}
