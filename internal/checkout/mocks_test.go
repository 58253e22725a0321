package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/discount"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/paypal"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// MockOrderRepository implements repository.OrderRepository in memory.
type MockOrderRepository struct {
	mu          sync.Mutex
	Orders      map[uuid.UUID]*domain.Order
	Items       []domain.OrderItem
	CreateCalls int
	CreateErr   error
	ItemErr     error
	RefErr      error
	MarkPaidErr error
	SettleCount int64
	SettledFor  []uuid.UUID
}

var _ repository.OrderRepository = (*MockOrderRepository)(nil)

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{Orders: map[uuid.UUID]*domain.Order{}}
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	stored := *order
	m.Orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepository) CreateOrderItem(_ context.Context, item domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ItemErr != nil {
		return m.ItemErr
	}
	m.Items = append(m.Items, item)
	return nil
}

func (m *MockOrderRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

func (m *MockOrderRepository) SetPaymentReference(_ context.Context, id uuid.UUID, method domain.PaymentMethod, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefErr != nil {
		return m.RefErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentMethod = method
	o.PaymentReference = &reference
	return nil
}

func (m *MockOrderRepository) MarkPaid(_ context.Context, id uuid.UUID, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkPaidErr != nil {
		return m.MarkPaidErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentReference = &reference
	return nil
}

func (m *MockOrderRepository) SettleTickets(_ context.Context, orderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettledFor = append(m.SettledFor, orderID)
	return m.SettleCount, nil
}

func (m *MockOrderRepository) only(t *testing.T) *domain.Order {
	t.Helper()
	if len(m.Orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(m.Orders))
	}
	for _, o := range m.Orders {
		return o
	}
	return nil
}

type MockCartRows struct {
	Deleted []string
	Err     error
}

func (m *MockCartRows) DeleteCartRows(_ context.Context, userID string) error {
	m.Deleted = append(m.Deleted, userID)
	return m.Err
}

// MockGateway implements paypal.Gateway.
type MockGateway struct {
	Token         string
	TokenErr      error
	RemoteID      string
	CreateErr     error
	CaptureStatus string
	CaptureErr    error

	TokenCalls int
	Created    []paypal.CreateOrderRequest
	Captured   []string
}

var _ paypal.Gateway = (*MockGateway)(nil)

func (m *MockGateway) AccessToken(_ context.Context) (string, error) {
	m.TokenCalls++
	return m.Token, m.TokenErr
}

func (m *MockGateway) CreateOrder(_ context.Context, _ string, req paypal.CreateOrderRequest) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, req)
	return m.RemoteID, nil
}

func (m *MockGateway) CaptureOrder(_ context.Context, _ string, remoteOrderID string) (string, error) {
	m.Captured = append(m.Captured, remoteOrderID)
	return m.CaptureStatus, m.CaptureErr
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []notify.OrderConfirmation
	Err  error
}

func (m *MockNotifier) SendOrderConfirmation(_ context.Context, msg notify.OrderConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return m.Err
}

// inlineTasks runs background work immediately so tests can assert on it.
type inlineTasks struct{}

func (inlineTasks) Go(_ string, fn func(ctx context.Context) error) error {
	_ = fn(context.Background())
	return nil
}

var errBackend = errors.New("backend unavailable")

var productA = domain.Product{ID: 1, Name: "Producto A", Price: decimal.NewFromInt(1000), Active: true}

type fixture struct {
	svc       *Service
	orders    *MockOrderRepository
	rows      *MockCartRows
	gateway   *MockGateway
	notifier  *MockNotifier
	discounts *discount.Evaluator
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		orders:    NewMockOrderRepository(),
		rows:      &MockCartRows{},
		gateway:   &MockGateway{Token: "tok", RemoteID: "REMOTE-1", CaptureStatus: paypal.StatusCompleted},
		notifier:  &MockNotifier{},
		discounts: discount.NewEvaluator(client, discount.DefaultShipping),
		redis:     mr,
	}
	cfg := Config{
		Sinpe: SinpeConfig{
			Phone:           "8888-0000",
			Banks:           []string{"BAC", "BCR", "BN"},
			MessageTemplate: "Pedido tienda",
		},
		ConversionRate:  decimal.NewFromInt(520),
		GatewayCurrency: "USD",
	}
	f.svc = NewService(cfg, f.orders, f.rows, f.discounts, f.gateway, f.notifier, inlineTasks{})
	return f
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:       "Ana Mora",
		Address:    "100m norte del parque",
		City:       "Heredia",
		State:      "Heredia",
		Country:    "CR",
		PostalCode: "40101",
		Phone:      "+50688887777",
	}
}

// newFlow starts a session with productA x2 in the cart.
func newFlow(identity domain.Identity) *Flow {
	return &Flow{
		Session:  session.New("sid-1"),
		Cart:     cart.NewStore([]domain.CartLine{{Product: productA, Quantity: 2}}),
		Identity: identity,
	}
}

// atPayment is a flow that already passed the address step.
func atPayment(identity domain.Identity) *Flow {
	f := newFlow(identity)
	addr := testAddress()
	f.Session.Wizard.Address = &addr
	f.Session.Wizard.Step = domain.StepPayment
	return f
}

var authenticated = domain.Identity{UserID: "user-7", Email: "ana@example.com"}
