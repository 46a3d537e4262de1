package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	orderNotFound = "Order not found"

	reviewNeedsDelivery = "Reviews are allowed only for delivered orders"
)

// TrackInput is the public tracking lookup
type TrackInput struct {
	OrderID string `json:"orderId" validate:"min=6,max=40"`
	Email   string `json:"email" validate:"required,email"`
}

// ReviewInput is a customer review of one delivered item
type ReviewInput struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	ItemID  string `json:"itemId" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"min=2,max=500"`
}

// TrackedItem is the public view of a line item
type TrackedItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PricePaise int64  `json:"pricePaise"`
}

// TrackedOrder is the public tracking view of an order
type TrackedOrder struct {
	ID                 string               `json:"id"`
	OrderNumber        string               `json:"orderNumber"`
	Status             models.OrderStatus   `json:"status"`
	PaymentStatus      models.PaymentStatus `json:"paymentStatus"`
	PaymentMethod      string               `json:"paymentMethod"`
	PaymentRemark      *string              `json:"paymentRemark"`
	PaymentSubmittedAt time.Time            `json:"paymentSubmittedAt"`
	PaymentVerifiedAt  *time.Time           `json:"paymentVerifiedAt"`
	CustomerName       string               `json:"customerName"`
	CustomerEmail      string               `json:"customerEmail"`
	TotalPaise         int64                `json:"totalPaise"`
	CreatedAt          time.Time            `json:"createdAt"`
	Items              []TrackedItem        `json:"items"`
}

func newTrackedOrder(o *models.Order, items []models.OrderItem) *TrackedOrder {
	t := &TrackedOrder{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		PaymentRemark:      o.PaymentRemark,
		PaymentSubmittedAt: o.PaymentSubmittedAt,
		PaymentVerifiedAt:  o.PaymentVerifiedAt,
		CustomerName:       o.CustomerName,
		CustomerEmail:      o.CustomerEmail,
		TotalPaise:         o.TotalPaise,
		CreatedAt:          o.CreatedAt,
		Items:              make([]TrackedItem, len(items)),
	}
	for i, item := range items {
		t.Items[i] = TrackedItem{ID: item.ID, Name: item.Name, Quantity: item.Quantity, PricePaise: item.PricePaise}
	}
	return t
}

// QueryService serves order reads and item reviews
type QueryService struct {
	orders  OrderStore
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewQueryService(orders OrderStore, timeout time.Duration) *QueryService {
	return &QueryService{
		orders:  orders,
		timeout: timeout,
		logger:  newLogger(),
		now:     time.Now,
	}
}

// MyOrders returns the caller's orders, matched by account or e-mail, newest first
func (s *QueryService) MyOrders(ctx context.Context, caller *auth.Identity) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.MyOrders")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Authenticated() {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	var byAccount, byEmail []models.Order
	g, gctx := errgroup.WithContext(ctx)
	if caller.AccountID != "" {
		g.Go(func() error {
			var err error
			byAccount, err = s.orders.ListOrdersByAccount(gctx, caller.AccountID)
			return err
		})
	}
	if caller.Email != "" {
		g.Go(func() error {
			var err error
			byEmail, err = s.orders.ListOrdersByEmail(gctx, caller.Email)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, unavailable(err)
	}

	seen := make(map[string]bool, len(byAccount)+len(byEmail))
	orders := make([]models.Order, 0, len(byAccount)+len(byEmail))
	for _, o := range append(byAccount, byEmail...) {
		if seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		orders = append(orders, o)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *QueryService) attachItems(ctx context.Context, orders []models.Order) error {
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := s.orders.GetOrderItemsByOrderIDs(ctx, ids)
	if err != nil {
		return unavailable(err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return nil
}

// Track looks an order up by id or order number for a guest who knows the
// order e-mail. Every mismatch reads as a missing order.
func (s *QueryService) Track(ctx context.Context, in TrackInput) (*TrackedOrder, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.Track")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	in.OrderID = strings.TrimSpace(in.OrderID)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, apperr.InvalidInput("Invalid order ID or email")
	}

	var order *models.Order
	var err error
	if _, parseErr := uuid.Parse(in.OrderID); parseErr == nil {
		order, err = s.orders.GetOrderByID(ctx, in.OrderID)
	} else {
		order, err = s.orders.GetOrderByNumber(ctx, in.OrderID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(orderNotFound)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if !strings.EqualFold(strings.TrimSpace(order.CustomerEmail), in.Email) {
		return nil, apperr.NotFound(orderNotFound)
	}

	items, err := s.orders.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	return newTrackedOrder(order, items), nil
}

// SubmitReview records a rating and comment on a delivered item. A repeat
// submission overwrites the earlier review.
func (s *QueryService) SubmitReview(ctx context.Context, in ReviewInput, caller *auth.Identity) error {
	ctx, span := util.StartSpan(ctx, "QueryService.SubmitReview")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Authenticated() {
		return apperr.Unauthorized("Unauthorized")
	}

	in.OrderID = strings.TrimSpace(in.OrderID)
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return apperr.InvalidInput("Invalid input")
	}

	order, err := s.orders.GetOrderByID(ctx, in.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(orderNotFound)
	}
	if err != nil {
		return unavailable(err)
	}
	if !order.IsOwnedBy(caller.AccountID, caller.Email) {
		return apperr.Forbidden("Forbidden")
	}
	if !order.IsDelivered() {
		return apperr.InvalidInput(reviewNeedsDelivery)
	}

	items, err := s.orders.GetOrderItems(ctx, order.ID)
	if err != nil {
		return unavailable(err)
	}
	if !containsItem(items, in.ItemID) {
		return apperr.NotFound("Order item not found")
	}

	review := models.ItemReview{Rating: in.Rating, Comment: in.Comment, CreatedAt: s.now().UTC()}
	err = s.orders.SaveItemReview(ctx, order.ID, in.ItemID, review)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Order item not found")
	}
	if errors.Is(err, store.ErrConflict) {
		return apperr.InvalidInput(reviewNeedsDelivery)
	}
	if err != nil {
		return unavailable(err)
	}

	s.logger.Info("Item reviewed",
		zap.String("order_id", order.ID),
		zap.String("item_id", in.ItemID),
		zap.Int("rating", in.Rating))
	return nil
}

func containsItem(items []models.OrderItem, itemID string) bool {
	for _, item := range items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// AdminListOrders returns every order with items and owning account, newest first
func (s *QueryService) AdminListOrders(ctx context.Context, caller *auth.Identity) ([]models.AdminOrder, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.AdminListOrders")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Admin() {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	orders, err := s.orders.ListAdminOrders(ctx)
	if err != nil {
		return nil, apperr.Unavailable("Unable to load orders right now", err)
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := s.orders.GetOrderItemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("Unable to load orders right now", err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, nil
}

// AdminSummary counts orders per dashboard bucket
func (s *QueryService) AdminSummary(ctx context.Context, caller *auth.Identity) (*models.OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.AdminSummary")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Admin() {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	summary, err := s.orders.GetOrderSummary(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return summary, nil
}
