package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"

	"github.com/lib/pq"
)

var orderColumnNames = []string{
	"id", "order_number", "account_id", "status",
	"payment_method", "payment_status", "payment_utr", "payment_upi_id", "payment_proof_ref",
	"payment_submitted_at", "payment_verified_at", "payment_verified_by", "payment_remark",
	"subtotal_paise", "shipping_paise", "tax_paise", "total_paise", "currency",
	"customer_name", "customer_email", "customer_phone",
	"address_line1", "address_line2", "city", "state", "postal_code",
	"created_at", "updated_at",
}

var orderColumns = strings.Join(orderColumnNames, ", ")

const itemColumns = `id, order_id, product_id, name, price_paise, quantity,
	review_rating, review_comment, review_created_at`

func qualifiedColumns(alias string, names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = alias + "." + n
	}
	return strings.Join(out, ", ")
}

// CreateOrder inserts the order header and its items in one transaction.
// Returns ErrDuplicateOrderNumber when the order number is taken.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("create order: no items")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, order_number, account_id, status, payment_method, payment_status,
			payment_utr, payment_upi_id, payment_proof_ref, payment_submitted_at,
			subtotal_paise, shipping_paise, tax_paise, total_paise, currency,
			customer_name, customer_email, customer_phone,
			address_line1, address_line2, city, state, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.ID, order.OrderNumber, order.AccountID, order.Status, order.PaymentMethod, order.PaymentStatus,
		order.PaymentUTR, order.PaymentUPIID, order.PaymentProofRef, order.PaymentSubmittedAt,
		order.SubtotalPaise, order.ShippingPaise, order.TaxPaise, order.TotalPaise, order.Currency,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.AddressLine1, order.AddressLine2, order.City, order.State, order.PostalCode,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, orderNumberConstraintKey) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, price_paise, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, order.ID, item.ProductID, item.Name, item.PricePaise, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (s *Store) getOrder(ctx context.Context, where string, arg interface{}) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE "+where+" LIMIT 1", arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByID retrieves an order header by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.getOrder(ctx, "id = $1", id)
}

// GetOrderByNumber retrieves an order header by order number, ignoring case
func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.getOrder(ctx, "order_number = $1", strings.ToUpper(strings.TrimSpace(number)))
}

// GetOrderByProofRef retrieves the order whose payment proof is ref
func (s *Store) GetOrderByProofRef(ctx context.Context, ref string) (*models.Order, error) {
	return s.getOrder(ctx, "payment_proof_ref = $1", ref)
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+itemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemsByOrderIDs retrieves items for several orders, keyed by order ID
func (s *Store) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	out := make(map[string][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+itemColumns+" FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id",
		pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

// ListOrdersByAccount retrieves an account's orders, newest first
func (s *Store) ListOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE account_id = $1 ORDER BY created_at DESC", accountID)
	return orders, err
}

// ListOrdersByEmail retrieves orders placed with an e-mail, ignoring case, newest first
func (s *Store) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE lower(customer_email) = lower($1) ORDER BY created_at DESC",
		strings.TrimSpace(email))
	return orders, err
}

type adminOrderRow struct {
	models.Order
	AccountRefID    *string `db:"account_ref_id"`
	AccountRefEmail *string `db:"account_ref_email"`
	AccountRefName  *string `db:"account_ref_name"`
}

// ListAdminOrders retrieves every order with its owning account, newest first
func (s *Store) ListAdminOrders(ctx context.Context) ([]models.AdminOrder, error) {
	query := `
		SELECT ` + qualifiedColumns("o", orderColumnNames) + `,
			a.id AS account_ref_id, a.email AS account_ref_email, a.name AS account_ref_name
		FROM orders o
		LEFT JOIN accounts a ON a.id = o.account_id
		ORDER BY o.created_at DESC`

	var rows []adminOrderRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	orders := make([]models.AdminOrder, len(rows))
	for i, row := range rows {
		orders[i] = models.AdminOrder{Order: row.Order}
		if row.AccountRefID != nil {
			ref := &models.AccountRef{ID: *row.AccountRefID, Name: row.AccountRefName}
			if row.AccountRefEmail != nil {
				ref.Email = *row.AccountRefEmail
			}
			orders[i].Account = ref
		}
	}
	return orders, nil
}

// GetOrderSummary counts orders per dashboard bucket. The cancelled bucket
// mirrors models.Order.IsCancelled.
func (s *Store) GetOrderSummary(ctx context.Context) (*models.OrderSummary, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE payment_status = 'pending_review') AS pending_review,
			COUNT(*) FILTER (WHERE payment_status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE payment_status = 'rejected' OR status = 'payment_rejected') AS cancelled,
			COUNT(*) FILTER (WHERE status = 'delivered') AS delivered
		FROM orders`

	var summary models.OrderSummary
	if err := s.db.GetContext(ctx, &summary, query); err != nil {
		return nil, err
	}
	return &summary, nil
}

// AttachProof sets the payment proof reference of an order
func (s *Store) AttachProof(ctx context.Context, orderID, ref string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_proof_ref = $2, updated_at = NOW() WHERE id = $1 AND payment_status = $3",
		orderID, ref, models.PaymentStatusPendingReview)
	if err != nil {
		return err
	}
	if err := expectAffected(res); !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := s.GetOrderByID(ctx, orderID); err != nil {
		return err
	}
	return ErrConflict
}

// ReviewPayment applies a payment decision to an order still pending review in
// a single conditional update. The order status moves only while it is still
// awaiting approval. When nothing was updated the current row is returned with
// changed=false.
func (s *Store) ReviewPayment(ctx context.Context, orderID string, d models.PaymentDecision) (*models.Order, bool, error) {
	query := `
		UPDATE orders SET
			payment_status = $2,
			payment_verified_at = $3,
			payment_verified_by = $4,
			payment_remark = $5,
			status = CASE WHEN status = $6 THEN $7 ELSE status END,
			updated_at = NOW()
		WHERE id = $1 AND payment_status = $8
		RETURNING ` + orderColumns

	var order models.Order
	err := s.db.GetContext(ctx, &order, query,
		orderID, d.Outcome, d.VerifiedAt, d.VerifiedBy, d.Remark,
		models.OrderStatusAwaitingPaymentApproval, d.OrderStatus,
		models.PaymentStatusPendingReview)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to review payment: %w", err)
	}
	return &order, true, nil
}

// SetFulfillmentStatus moves an order to status unless its payment was
// rejected or it is already there. When nothing was updated the current row is
// returned with changed=false.
func (s *Store) SetFulfillmentStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, bool, error) {
	query := `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status <> $3 AND status <> $4 AND status <> $2
		RETURNING ` + orderColumns

	var order models.Order
	err := s.db.GetContext(ctx, &order, query,
		orderID, status, models.PaymentStatusRejected, models.OrderStatusPaymentRejected)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, true, nil
}

// SaveItemReview writes the review of an item that belongs to orderID while
// the order is delivered. ErrConflict means the item exists but the order is
// no longer delivered.
func (s *Store) SaveItemReview(ctx context.Context, orderID, itemID string, review models.ItemReview) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE order_items SET review_rating = $3, review_comment = $4, review_created_at = $5
		WHERE id = $2 AND order_id = $1
			AND EXISTS (SELECT 1 FROM orders WHERE id = $1 AND status = $6)`,
		orderID, itemID, review.Rating, review.Comment, review.CreatedAt, models.OrderStatusDelivered)
	if err != nil {
		return err
	}
	if err := expectAffected(res); !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists bool
	err = s.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM order_items WHERE id = $2 AND order_id = $1)", orderID, itemID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
