package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(userID string) *domain.Order {
	return &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		PaymentMethod:   domain.PaymentMethodSinpe,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingStatus:  domain.ShippingStatusPending,
		TotalAmount:     decimal.NewFromInt(5200),
		ShippingAddress: testAddress(),
	}
}

func TestPostgres_OrderLifecycle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, order))
	assert.False(t, order.CreatedAt.IsZero())

	require.NoError(t, repo.CreateOrderItem(ctx, domain.OrderItem{
		OrderID: order.ID, ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(1000),
	}))

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.PaymentStatus)
	assert.Equal(t, "Heredia", got.ShippingAddress.City)
	assert.True(t, decimal.NewFromInt(5200).Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	require.NoError(t, repo.SetPaymentReference(ctx, order.ID, domain.PaymentMethodSinpe, "BAC - 1234"))
	got, err = repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.PaymentStatus)
	require.NotNil(t, got.PaymentReference)
	assert.Equal(t, "BAC - 1234", *got.PaymentReference)
}

func TestPostgres_MarkPaidAndSettleTickets(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder(domain.GuestUserID)
	order.PaymentMethod = domain.PaymentMethodPayPal
	require.NoError(t, repo.CreateOrder(ctx, order))

	for i := 0; i < 2; i++ {
		_, err := repo.db.ExecContext(ctx, `INSERT INTO tickets (order_id) VALUES ($1)`, order.ID)
		require.NoError(t, err)
	}

	require.NoError(t, repo.MarkPaid(ctx, order.ID, "5O190127TN364715T"))

	settled, err := repo.SettleTickets(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), settled)

	settled, err = repo.SettleTickets(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, settled)

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
}

func TestPostgres_GetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, repo.MarkPaid(context.Background(), uuid.New(), "x"), ErrOrderNotFound)
}

func TestPostgres_CartRows(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceCartRows(ctx, "user-1", []domain.CartRow{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}))
	rows, err := repo.ListCartRows(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, repo.ReplaceCartRows(ctx, "user-1", []domain.CartRow{{ProductID: 3, Quantity: 4}}))
	rows, err = repo.ListCartRows(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartRow{{UserID: "user-1", ProductID: 3, Quantity: 4}}, rows)

	require.NoError(t, repo.DeleteCartRows(ctx, "user-1"))
	rows, err = repo.ListCartRows(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
