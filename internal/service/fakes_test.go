package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/config"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/blob"
	"github.com/Sivanthsiv/food-ecommerce/internal/catalog"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory ProductStore, OrderStore and AccountStore with the
// same conditional-update semantics as the SQL store.
type memStore struct {
	mu sync.Mutex

	products   map[string]models.Product
	slugs      map[string]string
	orders     map[string]*models.Order
	items      map[string][]models.OrderItem
	accounts   map[string]models.AccountRef
	tick       int
	failOrders error
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]models.Product),
		slugs:    make(map[string]string),
		orders:   make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		accounts: make(map[string]models.AccountRef),
	}
}

func (m *memStore) clock() time.Time {
	m.tick++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.tick) * time.Minute)
}

func (m *memStore) addProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	m.slugs[p.Slug] = p.ID
}

func (m *memStore) productCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

func (m *memStore) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetProductsBySlugs(ctx context.Context, slugs []string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, slug := range slugs {
		if id, ok := m.slugs[slug]; ok {
			out = append(out, m.products[id])
		}
	}
	return out, nil
}

func (m *memStore) UpsertProductBySlug(ctx context.Context, p *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.slugs[p.Slug]; ok {
		existing := m.products[id]
		return &existing, nil
	}
	created := *p
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	m.products[created.ID] = created
	m.slugs[created.Slug] = created.ID
	return &created, nil
}

func (m *memStore) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOrders != nil {
		return m.failOrders
	}
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return store.ErrDuplicateOrderNumber
		}
	}
	now := m.clock()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := *order
	stored.Items = nil
	m.orders[order.ID] = &stored
	m.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (m *memStore) find(match func(*models.Order) bool) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			c := *o
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return m.find(func(o *models.Order) bool { return o.ID == id })
}

func (m *memStore) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	return m.find(func(o *models.Order) bool { return o.OrderNumber == number })
}

func (m *memStore) GetOrderByProofRef(ctx context.Context, ref string) (*models.Order, error) {
	return m.find(func(o *models.Order) bool { return o.PaymentProofRef != nil && *o.PaymentProofRef == ref })
}

func (m *memStore) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrderItem(nil), m.items[orderID]...), nil
}

func (m *memStore) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]models.OrderItem)
	for _, id := range orderIDs {
		if items, ok := m.items[id]; ok {
			out[id] = append([]models.OrderItem(nil), items...)
		}
	}
	return out, nil
}

func (m *memStore) list(match func(*models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error) {
	return m.list(func(o *models.Order) bool { return o.AccountID != nil && *o.AccountID == accountID }), nil
}

func (m *memStore) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return m.list(func(o *models.Order) bool { return strings.EqualFold(o.CustomerEmail, email) }), nil
}

func (m *memStore) ListAdminOrders(ctx context.Context) ([]models.AdminOrder, error) {
	orders := m.list(func(*models.Order) bool { return true })
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AdminOrder, len(orders))
	for i, o := range orders {
		out[i] = models.AdminOrder{Order: o}
		if o.AccountID != nil {
			if ref, ok := m.accounts[*o.AccountID]; ok {
				r := ref
				out[i].Account = &r
			}
		}
	}
	return out, nil
}

func (m *memStore) GetOrderSummary(ctx context.Context) (*models.OrderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s models.OrderSummary
	for _, o := range m.orders {
		s.Total++
		switch o.PaymentStatus {
		case models.PaymentStatusPendingReview:
			s.PendingReview++
		case models.PaymentStatusApproved:
			s.Approved++
		}
		if o.IsCancelled() {
			s.Cancelled++
		}
		if o.IsDelivered() {
			s.Delivered++
		}
	}
	return &s, nil
}

func (m *memStore) AttachProof(ctx context.Context, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	if o.PaymentStatus != models.PaymentStatusPendingReview {
		return store.ErrConflict
	}
	o.PaymentProofRef = &ref
	return nil
}

func (m *memStore) ReviewPayment(ctx context.Context, orderID string, d models.PaymentDecision) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if o.PaymentStatus != models.PaymentStatusPendingReview {
		c := *o
		return &c, false, nil
	}
	o.PaymentStatus = d.Outcome
	o.PaymentVerifiedAt = d.VerifiedAt
	verifiedBy := d.VerifiedBy
	o.PaymentVerifiedBy = &verifiedBy
	o.PaymentRemark = d.Remark
	if o.Status == models.OrderStatusAwaitingPaymentApproval {
		o.Status = d.OrderStatus
	}
	c := *o
	return &c, true, nil
}

func (m *memStore) SetFulfillmentStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if o.PaymentStatus == models.PaymentStatusRejected || o.Status == models.OrderStatusPaymentRejected || o.Status == status {
		c := *o
		return &c, false, nil
	}
	o.Status = status
	c := *o
	return &c, true, nil
}

func (m *memStore) SaveItemReview(ctx context.Context, orderID, itemID string, review models.ItemReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items[orderID] {
		item := &m.items[orderID][i]
		if item.ID == itemID {
			if o, ok := m.orders[orderID]; !ok || !o.IsDelivered() {
				return store.ErrConflict
			}
			rating, comment, at := review.Rating, review.Comment, review.CreatedAt
			item.ReviewRating, item.ReviewComment, item.ReviewCreatedAt = &rating, &comment, &at
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) UpdateAccountProfile(ctx context.Context, accountID, email string, p models.AccountProfile) error {
	return nil
}

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) UpdateAccountProfile(ctx context.Context, accountID, email string, p models.AccountProfile) error {
	args := m.Called(ctx, accountID, email, p)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) ofType(eventType string) []*models.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*models.OrderEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (b *memBlobs) Create(ctx context.Context, name string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[name]; ok {
		return blob.ErrExists
	}
	b.objects[name] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return nil, blob.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testBusinessConfig() config.BusinessConfig {
	return config.BusinessConfig{
		OrderNumberPrefix:          "EK",
		OrderNumberMaxAttempts:     5,
		FreeShippingThresholdPaise: 50000,
		FlatShippingPaise:          4900,
		OperationTimeout:           5 * time.Second,
	}
}

type fixture struct {
	store   *memStore
	blobs   *memBlobs
	events  *recordingPublisher
	orders  *OrderService
	proofs  *ProofService
	reviews *ReviewService
	queries *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	blobs := newMemBlobs()
	events := &recordingPublisher{}
	resolver := NewProductResolver(st, catalog.Default())
	cfg := testBusinessConfig()

	return &fixture{
		store:   st,
		blobs:   blobs,
		events:  events,
		orders:  NewOrderService(st, st, resolver, events, cfg),
		proofs:  NewProofService(st, blobs, events, 5<<20, cfg.OperationTimeout),
		reviews: NewReviewService(st, events, cfg.OperationTimeout),
		queries: NewQueryService(st, cfg.OperationTimeout),
	}
}

var (
	customer = &auth.Identity{AccountID: "acct-1", Email: "asha@example.com", Name: "Asha"}
	stranger = &auth.Identity{AccountID: "acct-2", Email: "ravi@example.com", Name: "Ravi"}
	admin    = &auth.Identity{AccountID: "admin-1", Email: "admin@example.com", IsAdmin: true}
)

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		Items: []CartItem{{ProductID: "1", Quantity: 2}},
		Customer: CustomerInput{
			Name:  "Asha Rao",
			Email: "asha@example.com",
			Phone: "9876543210",
		},
		Address: AddressInput{
			Line1:      "12 MG Road",
			City:       "Hyderabad",
			State:      "Telangana",
			PostalCode: "500001",
		},
		Payment: PaymentInput{
			UTR:   "UTR12345678",
			UPIID: "asha@upi",
		},
	}
}

var pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("rest-of-png")...)
