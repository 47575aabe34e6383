package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// ErrVersionConflict is returned when an optimistic status update loses
// the race against a concurrent writer.
var ErrVersionConflict = errors.New("order version conflict")

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	// CreateFromPlan inserts an order whose amount is snapshotted from
	// the plan row in the same statement, so a concurrent price update
	// can never produce a torn read. Returns pgx.ErrNoRows when the
	// plan vanished.
	CreateFromPlan(ctx context.Context, userID, planID string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	ListByHouseOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error)
	// UpdateStatus performs a compare-and-set on (id, version).
	UpdateStatus(ctx context.Context, id string, to domain.OrderStatus, version int64) (*domain.Order, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, user_id, house_id, plan_id, status, amount_cents, version, created_at, updated_at`

func (r *orderRepository) CreateFromPlan(ctx context.Context, userID, planID string) (*domain.Order, error) {
	const query = `
        INSERT INTO orders (user_id, house_id, plan_id, status, amount_cents)
        SELECT $1, house_id, id, 'created', price_cents
        FROM meal_plans WHERE id=$2
        RETURNING ` + orderColumns
	row := r.pool.QueryRow(ctx, query, userID, planID)
	return scanOrder(row)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanOrder(row)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	const query = `
        SELECT ` + orderColumns + ` FROM orders
        WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *orderRepository) ListByHouseOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Order, error) {
	const query = `
        SELECT o.id, o.user_id, o.house_id, o.plan_id, o.status, o.amount_cents, o.version, o.created_at, o.updated_at
        FROM orders o JOIN houses h ON h.id = o.house_id
        WHERE h.owner_id=$1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, ownerID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *orderRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	const query = `
        SELECT ` + orderColumns + ` FROM orders
        ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, to domain.OrderStatus, version int64) (*domain.Order, error) {
	const query = `
        UPDATE orders SET status=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND version=$3
        RETURNING ` + orderColumns
	row := r.pool.QueryRow(ctx, query, to, id, version)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	return order, err
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order       domain.Order
		amountCents int64
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.HouseID,
		&order.PlanID,
		&order.Status,
		&amountCents,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	order.AmountCents = domain.Cents(amountCents)
	return &order, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
