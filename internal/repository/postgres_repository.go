package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Info().Str("host", cred.Host).Int("port", cred.Port).Msg("connected to postgres")
	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an already opened database.
func NewRepositoryFromDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `INSERT INTO orders (id, user_id, payment_method, payment_status, shipping_status, total_amount,
	              shipping_address, payment_reference, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	          RETURNING created_at, updated_at`

	insertErr := r.db.QueryRowContext(ctx, query,
		order.ID,
		order.UserID,
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		string(order.ShippingStatus),
		order.TotalAmount,
		addressJSON,
		nullString(order.PaymentReference),
		nullString(order.Notes),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *Repository) CreateOrderItem(ctx context.Context, item domain.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Price); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, payment_method, payment_status, shipping_status, total_amount,
	                 shipping_address, payment_reference, notes, created_at, updated_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	var addressJSON []byte
	var reference, notes sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.ShippingStatus,
		&order.TotalAmount,
		&addressJSON,
		&reference,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	order.PaymentReference = stringPtr(reference)
	order.Notes = stringPtr(notes)

	items, err := r.listOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *Repository) listOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// SetPaymentReference records a self-reported payment and the method it was made with.
// The payment status is left as it is.
func (r *Repository) SetPaymentReference(ctx context.Context, id uuid.UUID, method domain.PaymentMethod, reference string) error {
	query := `UPDATE orders SET payment_method = $2, payment_reference = $3, updated_at = NOW() WHERE id = $1`
	return r.updateOrder(ctx, query, id, string(method), reference)
}

func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, reference string) error {
	query := `UPDATE orders SET payment_status = 'paid', payment_reference = $2, updated_at = NOW() WHERE id = $1`
	return r.updateOrder(ctx, query, id, reference)
}

func (r *Repository) updateOrder(ctx context.Context, query string, id uuid.UUID, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) SettleTickets(ctx context.Context, orderID uuid.UUID) (int64, error) {
	query := `UPDATE tickets SET status = 'settled', settled_at = NOW() WHERE order_id = $1 AND status = 'reserved'`

	result, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		return 0, fmt.Errorf("settle tickets: %w", err)
	}
	return result.RowsAffected()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
