package service

import (
	"context"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"
)

// ProductStore is the persisted product catalog
type ProductStore interface {
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	GetProductsBySlugs(ctx context.Context, slugs []string) ([]models.Product, error)
	UpsertProductBySlug(ctx context.Context, p *models.Product) (*models.Product, error)
}

// OrderStore persists orders and their items
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	GetOrderByProofRef(ctx context.Context, ref string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error)
	ListOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListAdminOrders(ctx context.Context) ([]models.AdminOrder, error)
	GetOrderSummary(ctx context.Context) (*models.OrderSummary, error)
	AttachProof(ctx context.Context, orderID, ref string) error
	ReviewPayment(ctx context.Context, orderID string, d models.PaymentDecision) (*models.Order, bool, error)
	SetFulfillmentStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, bool, error)
	SaveItemReview(ctx context.Context, orderID, itemID string, review models.ItemReview) error
}

// AccountStore updates customer accounts
type AccountStore interface {
	UpdateAccountProfile(ctx context.Context, accountID, email string, p models.AccountProfile) error
}

// EventPublisher emits domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *models.OrderEvent) error
}
