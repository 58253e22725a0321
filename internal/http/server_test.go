package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/discount"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/paypal"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeCatalog struct {
	products map[int64]domain.Product
}

func (c *fakeCatalog) FetchProductByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (c *fakeCatalog) FetchProductsByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func (m *memoryOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memoryOrders) CreateOrderItem(_ context.Context, item domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[item.OrderID]; ok {
		o.Items = append(o.Items, item)
	}
	return nil
}

func (m *memoryOrders) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

func (m *memoryOrders) SetPaymentReference(_ context.Context, id uuid.UUID, method domain.PaymentMethod, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentMethod = method
	o.PaymentReference = &reference
	return nil
}

func (m *memoryOrders) MarkPaid(_ context.Context, id uuid.UUID, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentReference = &reference
	return nil
}

func (m *memoryOrders) SettleTickets(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

type memoryRows struct {
	mu   sync.Mutex
	rows map[string][]domain.CartRow
}

func (m *memoryRows) ListCartRows(_ context.Context, userID string) ([]domain.CartRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[userID], nil
}

func (m *memoryRows) ReplaceCartRows(_ context.Context, userID string, rows []domain.CartRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = rows
	return nil
}

func (m *memoryRows) DeleteCartRows(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

type stubGateway struct {
	captureStatus string
}

func (g *stubGateway) AccessToken(context.Context) (string, error) { return "tok", nil }

func (g *stubGateway) CreateOrder(context.Context, string, paypal.CreateOrderRequest) (string, error) {
	return "REMOTE-1", nil
}

func (g *stubGateway) CaptureOrder(context.Context, string, string) (string, error) {
	return g.captureStatus, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.OrderConfirmation
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, msg notify.OrderConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type syncTasks struct{}

func (syncTasks) Go(_ string, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

var (
	productA = domain.Product{ID: 1, Name: "Producto A", Price: decimal.NewFromInt(1000), Active: true}
	productB = domain.Product{ID: 2, Name: "Producto B", Price: decimal.NewFromInt(2500), Active: true}
)

type testServer struct {
	handler  http.Handler
	redis    *miniredis.Miniredis
	orders   *memoryOrders
	rows     *memoryRows
	gateway  *stubGateway
	notifier *recordingNotifier
	jwt      *JWTValidator
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ts := &testServer{
		redis:    mr,
		orders:   &memoryOrders{orders: map[uuid.UUID]*domain.Order{}},
		rows:     &memoryRows{rows: map[string][]domain.CartRow{}},
		gateway:  &stubGateway{captureStatus: paypal.StatusCompleted},
		notifier: &recordingNotifier{},
		jwt:      NewJWTValidator(testSecret, ""),
	}

	products := &fakeCatalog{products: map[int64]domain.Product{1: productA, 2: productB}}
	discounts := discount.NewEvaluator(rdb, discount.DefaultShipping)
	service := checkout.NewService(
		checkout.Config{
			Sinpe:          checkout.SinpeConfig{Phone: "8888-8888", Banks: []string{"BAC", "BCR", "BN"}},
			ConversionRate: decimal.NewFromInt(520),
		},
		ts.orders, ts.rows, discounts, ts.gateway, ts.notifier, syncTasks{},
	)
	scope := NewSessionScope(session.NewManager(session.NewRedisStore(rdb, time.Hour)), products, ts.rows, discounts, 5*time.Second)

	ts.handler = NewRouter(RouterConfig{
		Cart:           NewCartHandler(scope, products),
		Checkout:       NewCheckoutHandler(scope, service),
		PayPal:         NewPayPalHandler(scope, service),
		Orders:         NewOrdersHandler(ts.orders),
		JWT:            ts.jwt,
		PaymentLimiter: limiter,
	})
	return ts
}

// client keeps the session id and bearer token across requests like a browser would.
type client struct {
	t     *testing.T
	ts    *testServer
	sid   string
	token string
}

func (ts *testServer) guest(t *testing.T) *client {
	return &client{t: t, ts: ts}
}

func (ts *testServer) user(t *testing.T, userID, email string) *client {
	token, err := ts.jwt.Sign(userID, email, time.Hour)
	require.NoError(t, err)
	return &client{t: t, ts: ts, token: token}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.sid != "" {
		req.Header.Set(SessionHeader, c.sid)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.ts.handler.ServeHTTP(rec, req)
	if sid := rec.Header().Get(SessionHeader); sid != "" {
		c.sid = sid
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

var testAddress = domain.ShippingAddress{
	Name:       "Ana Mora",
	Address:    "Calle 5",
	City:       "San José",
	State:      "San José",
	Country:    "CR",
	PostalCode: "10101",
	Phone:      "8888-0000",
}

// toPayment fills the cart and completes the address step.
func (c *client) toPayment() {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 1, Quantity: 2})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = c.do(http.MethodPost, "/api/v1/checkout/address", testAddress)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
}
