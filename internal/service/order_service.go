package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/config"
	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	paymentMethodUPI = "upi"
	currencyINR      = "INR"
	bookingForSelf   = "self"
)

// CartItem is one cart line as submitted by the client
type CartItem struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

type CustomerInput struct {
	Name  string `json:"name" validate:"required,min=2,max=80"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

type AddressInput struct {
	Line1      string `json:"line1" validate:"required,min=3,max=120"`
	Line2      string `json:"line2" validate:"max=120"`
	City       string `json:"city" validate:"required,min=2,max=60"`
	State      string `json:"state" validate:"required,min=2,max=60"`
	PostalCode string `json:"postalCode" validate:"required,min=4,max=12"`
}

type PaymentInput struct {
	UTR           string `json:"utr" validate:"required,min=6,max=60"`
	UPIID         string `json:"upiId" validate:"required,min=3,max=100"`
	ScreenshotURL string `json:"screenshotUrl" validate:"max=300"`
}

// PlaceOrderInput is the checkout request
type PlaceOrderInput struct {
	Items      []CartItem    `json:"items" validate:"dive"`
	Customer   CustomerInput `json:"customer"`
	Address    AddressInput  `json:"address"`
	Payment    PaymentInput  `json:"payment"`
	BookingFor string        `json:"bookingFor" validate:"omitempty,oneof=self other"`
}

func (in *PlaceOrderInput) normalize() {
	for i := range in.Items {
		in.Items[i].ProductID = strings.TrimSpace(in.Items[i].ProductID)
	}
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	in.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	in.Address.Line1 = strings.TrimSpace(in.Address.Line1)
	in.Address.Line2 = strings.TrimSpace(in.Address.Line2)
	in.Address.City = strings.TrimSpace(in.Address.City)
	in.Address.State = strings.TrimSpace(in.Address.State)
	in.Address.PostalCode = strings.TrimSpace(in.Address.PostalCode)
	in.Payment.UTR = strings.TrimSpace(in.Payment.UTR)
	in.Payment.UPIID = strings.TrimSpace(in.Payment.UPIID)
	in.Payment.ScreenshotURL = strings.TrimSpace(in.Payment.ScreenshotURL)
	in.BookingFor = strings.ToLower(strings.TrimSpace(in.BookingFor))
}

// Totals is the money breakdown of an order, in paise
type Totals struct {
	Subtotal int64
	Shipping int64
	Tax      int64
	Total    int64
}

// OrderService places orders
type OrderService struct {
	orders   OrderStore
	accounts AccountStore
	resolver *ProductResolver
	events   EventPublisher
	cfg      config.BusinessConfig
	logger   *zap.Logger

	now         func() time.Time
	orderNumber func(prefix string, now time.Time) (string, error)
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderStore,
	accounts AccountStore,
	resolver *ProductResolver,
	events EventPublisher,
	cfg config.BusinessConfig,
) *OrderService {
	if cfg.OrderNumberMaxAttempts < 1 {
		cfg.OrderNumberMaxAttempts = 1
	}
	return &OrderService{
		orders:      orders,
		accounts:    accounts,
		resolver:    resolver,
		events:      events,
		cfg:         cfg,
		logger:      newLogger(),
		now:         time.Now,
		orderNumber: randomOrderNumber,
	}
}

// randomOrderNumber returns PREFIX-YYMMDD-NNNNNN with six random digits
func randomOrderNumber(prefix string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%06d", strings.ToUpper(prefix), now.UTC().Format("060102"), n.Int64()), nil
}

// ComputeTotals prices resolved lines. Shipping is waived at or above the
// free-shipping threshold. No tax is charged.
func (s *OrderService) ComputeTotals(lines []ResolvedLine) Totals {
	var t Totals
	for _, line := range lines {
		t.Subtotal += line.Product.PricePaise * int64(line.Quantity)
	}
	if t.Subtotal < s.cfg.FreeShippingThresholdPaise {
		t.Shipping = s.cfg.FlatShippingPaise
	}
	t.Total = t.Subtotal + t.Shipping + t.Tax
	return t
}

// PlaceOrder validates the checkout, resolves products at their current
// prices and persists the order with its items atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput, caller *auth.Identity) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder", attribute.Int("items", len(in.Items)))
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	in.normalize()
	if len(in.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperr.InvalidInput("Your cart is empty")
	}
	if err := validate.Struct(in); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, validationError(err)
	}

	proofRef, err := checkProofRef(in.Payment.ScreenshotURL, caller)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_proof").Inc()
		return nil, err
	}

	requests := make([]LineRequest, len(in.Items))
	for i, item := range in.Items {
		requests[i] = LineRequest{Ref: models.ParseProductRef(item.ProductID), Quantity: item.Quantity}
	}
	lines, err := s.resolver.Resolve(ctx, requests)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("unresolved_products").Inc()
		return nil, err
	}

	totals := s.ComputeTotals(lines)
	order := s.buildOrder(in, caller, totals, proofRef)
	items := make([]models.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			ProductID:  line.Product.ID,
			Name:       line.Product.Name,
			PricePaise: line.Product.PricePaise,
			Quantity:   line.Quantity,
		}
	}

	if err := s.insertWithUniqueNumber(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}
	order.Items = items

	util.OrdersPlacedTotal.Inc()
	util.OrderValuePaise.Observe(float64(order.TotalPaise))
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_paise", order.TotalPaise))

	if in.BookingFor == bookingForSelf && caller.Authenticated() {
		s.syncProfile(ctx, caller, in)
	}

	publish(ctx, s.events, s.logger, models.NewOrderEvent(models.EventTypeOrderPlaced, order, ""))
	return order, nil
}

func (s *OrderService) buildOrder(in PlaceOrderInput, caller *auth.Identity, totals Totals, proofRef *string) *models.Order {
	order := &models.Order{
		ID:                 uuid.NewString(),
		Status:             models.OrderStatusAwaitingPaymentApproval,
		PaymentMethod:      paymentMethodUPI,
		PaymentStatus:      models.PaymentStatusPendingReview,
		PaymentUTR:         in.Payment.UTR,
		PaymentUPIID:       in.Payment.UPIID,
		PaymentProofRef:    proofRef,
		PaymentSubmittedAt: s.now().UTC(),
		SubtotalPaise:      totals.Subtotal,
		ShippingPaise:      totals.Shipping,
		TaxPaise:           totals.Tax,
		TotalPaise:         totals.Total,
		Currency:           currencyINR,
		CustomerName:       in.Customer.Name,
		CustomerEmail:      in.Customer.Email,
		CustomerPhone:      in.Customer.Phone,
		AddressLine1:       in.Address.Line1,
		City:               in.Address.City,
		State:              in.Address.State,
		PostalCode:         in.Address.PostalCode,
	}
	if in.Address.Line2 != "" {
		line2 := in.Address.Line2
		order.AddressLine2 = &line2
	}
	if caller != nil && caller.AccountID != "" {
		accountID := caller.AccountID
		order.AccountID = &accountID
	}
	return order
}

// insertWithUniqueNumber assigns a fresh order number and retries on collision
func (s *OrderService) insertWithUniqueNumber(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	for attempt := 1; attempt <= s.cfg.OrderNumberMaxAttempts; attempt++ {
		number, err := s.orderNumber(s.cfg.OrderNumberPrefix, s.now())
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "Could not place order", err)
		}
		order.OrderNumber = number

		err = s.orders.CreateOrder(ctx, order, items)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateOrderNumber) {
			s.logger.Error("Failed to create order", zap.String("order_id", order.ID), zap.Error(err))
			return unavailable(err)
		}

		util.OrderNumberCollisionsTotal.Inc()
		s.logger.Warn("Order number collision, retrying",
			zap.String("order_number", number),
			zap.Int("attempt", attempt))
	}
	return unavailable(fmt.Errorf("no unique order number after %d attempts", s.cfg.OrderNumberMaxAttempts))
}

// syncProfile copies the checkout contact details onto the caller's account.
// Failures are logged only.
func (s *OrderService) syncProfile(ctx context.Context, caller *auth.Identity, in PlaceOrderInput) {
	profile := models.AccountProfile{
		Name:         in.Customer.Name,
		Phone:        in.Customer.Phone,
		AddressLine1: in.Address.Line1,
		City:         in.Address.City,
		State:        in.Address.State,
		PostalCode:   in.Address.PostalCode,
	}
	if in.Address.Line2 != "" {
		line2 := in.Address.Line2
		profile.AddressLine2 = &line2
	}

	if s.accounts == nil {
		return
	}
	if err := s.accounts.UpdateAccountProfile(ctx, caller.AccountID, caller.Email, profile); err != nil {
		s.logger.Warn("Failed to sync account profile",
			zap.String("account_id", caller.AccountID),
			zap.Error(err))
	}
}
