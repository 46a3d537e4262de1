package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents a persisted catalog product
type Product struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	PricePaise  int64     `db:"price_paise" json:"pricePaise"`
	ImageURL    *string   `db:"image_url" json:"imageUrl"`
	IsVeg       bool      `db:"is_veg" json:"isVeg"`
	SpiceLevel  *string   `db:"spice_level" json:"spiceLevel"`
	Weight      *string   `db:"weight" json:"weight"`
	ShelfLife   *string   `db:"shelf_life" json:"shelfLife"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Account holds the customer account fields the order flow reads or syncs
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         *string   `db:"name" json:"name"`
	Phone        *string   `db:"phone" json:"phone"`
	AddressLine1 *string   `db:"address_line1" json:"addressLine1"`
	AddressLine2 *string   `db:"address_line2" json:"addressLine2"`
	City         *string   `db:"city" json:"city"`
	State        *string   `db:"state" json:"state"`
	PostalCode   *string   `db:"postal_code" json:"postalCode"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AccountProfile is the contact/address subset copied from an order onto an account.
// Email is never part of it.
type AccountProfile struct {
	Name         string
	Phone        string
	AddressLine1 string
	AddressLine2 *string
	City         string
	State        string
	PostalCode   string
}

// AccountRef is the owning-account summary joined into admin listings
type AccountRef struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Order represents a customer order with its payment sub-record
type Order struct {
	ID                 string        `db:"id" json:"id"`
	OrderNumber        string        `db:"order_number" json:"orderNumber"`
	AccountID          *string       `db:"account_id" json:"accountId"`
	Status             OrderStatus   `db:"status" json:"status"`
	PaymentMethod      string        `db:"payment_method" json:"paymentMethod"`
	PaymentStatus      PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaymentUTR         string        `db:"payment_utr" json:"paymentUtr"`
	PaymentUPIID       string        `db:"payment_upi_id" json:"paymentUpiId"`
	PaymentProofRef    *string       `db:"payment_proof_ref" json:"paymentScreenshotUrl"`
	PaymentSubmittedAt time.Time     `db:"payment_submitted_at" json:"paymentSubmittedAt"`
	PaymentVerifiedAt  *time.Time    `db:"payment_verified_at" json:"paymentVerifiedAt"`
	PaymentVerifiedBy  *string       `db:"payment_verified_by" json:"paymentVerifiedBy"`
	PaymentRemark      *string       `db:"payment_remark" json:"paymentRemark"`
	SubtotalPaise      int64         `db:"subtotal_paise" json:"subtotalPaise"`
	ShippingPaise      int64         `db:"shipping_paise" json:"shippingPaise"`
	TaxPaise           int64         `db:"tax_paise" json:"taxPaise"`
	TotalPaise         int64         `db:"total_paise" json:"totalPaise"`
	Currency           string        `db:"currency" json:"currency"`
	CustomerName       string        `db:"customer_name" json:"customerName"`
	CustomerEmail      string        `db:"customer_email" json:"customerEmail"`
	CustomerPhone      string        `db:"customer_phone" json:"customerPhone"`
	AddressLine1       string        `db:"address_line1" json:"addressLine1"`
	AddressLine2       *string       `db:"address_line2" json:"addressLine2"`
	City               string        `db:"city" json:"city"`
	State              string        `db:"state" json:"state"`
	PostalCode         string        `db:"postal_code" json:"postalCode"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items"`
}

// IsOwnedBy reports whether the account id or e-mail owns the order.
// E-mail comparison is case-insensitive.
func (o *Order) IsOwnedBy(accountID, email string) bool {
	if accountID != "" && o.AccountID != nil && *o.AccountID == accountID {
		return true
	}
	return email != "" && strings.EqualFold(strings.TrimSpace(o.CustomerEmail), strings.TrimSpace(email))
}

// IsProofHolder applies the stricter rule used for payment proofs: an order
// bound to an account matches only that account, a guest order matches by
// case-insensitive e-mail.
func (o *Order) IsProofHolder(accountID, email string) bool {
	if o.AccountID != nil && *o.AccountID != "" {
		return accountID != "" && *o.AccountID == accountID
	}
	return email != "" && strings.EqualFold(strings.TrimSpace(o.CustomerEmail), strings.TrimSpace(email))
}

// IsCancelled reports whether the order left the fulfillment flow through a payment rejection.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusPaymentRejected || o.PaymentStatus == PaymentStatusRejected
}

func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// OrderItem is a line item with the product name and price captured at order time
type OrderItem struct {
	ID              string     `db:"id" json:"id"`
	OrderID         string     `db:"order_id" json:"orderId"`
	ProductID       string     `db:"product_id" json:"productId"`
	Name            string     `db:"name" json:"name"`
	PricePaise      int64      `db:"price_paise" json:"pricePaise"`
	Quantity        int        `db:"quantity" json:"quantity"`
	ReviewRating    *int       `db:"review_rating" json:"reviewRating"`
	ReviewComment   *string    `db:"review_comment" json:"reviewComment"`
	ReviewCreatedAt *time.Time `db:"review_created_at" json:"reviewCreatedAt"`
}

// ItemReview is a post-delivery review for one line item
type ItemReview struct {
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// AdminOrder is an order with its owning account joined in
type AdminOrder struct {
	Order
	Account *AccountRef `json:"user"`
}

// OrderSummary buckets orders for the admin dashboard
type OrderSummary struct {
	Total         int `db:"total" json:"total"`
	PendingReview int `db:"pending_review" json:"pendingReview"`
	Approved      int `db:"approved" json:"approved"`
	Cancelled     int `db:"cancelled" json:"cancelled"`
	Delivered     int `db:"delivered" json:"delivered"`
}

// PaymentDecision is the payload of a single conditional payment transition
type PaymentDecision struct {
	Outcome     PaymentStatus
	OrderStatus OrderStatus
	VerifiedAt  *time.Time
	VerifiedBy  string
	Remark      *string
}

// ProductRefKind tells which product namespace a cart reference points into
type ProductRefKind int

const (
	StaticRef ProductRefKind = iota
	StoreRef
)

// ProductRef is a cart product reference tagged with its namespace
type ProductRef struct {
	Kind ProductRefKind
	ID   string
}

// ParseProductRef classifies a raw client reference. Persisted products carry
// UUID ids; anything else refers to the static catalog.
func ParseProductRef(raw string) ProductRef {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return ProductRef{Kind: StoreRef, ID: id.String()}
	}
	return ProductRef{Kind: StaticRef, ID: raw}
}

func (r ProductRef) String() string {
	if r.Kind == StoreRef {
		return "store:" + r.ID
	}
	return "static:" + r.ID
}
