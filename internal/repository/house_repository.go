package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// ErrOpenOrders is returned when a house cannot be deleted because
// non-terminal orders still reference it.
var ErrOpenOrders = errors.New("house has open orders")

// HouseRepository manages house persistence.
type HouseRepository interface {
	Create(ctx context.Context, house *domain.House) error
	Update(ctx context.Context, house *domain.House) error
	GetByID(ctx context.Context, id string) (*domain.House, error)
	List(ctx context.Context, limit, offset int) ([]domain.House, error)
	// Delete removes the house unless open orders exist. The check and
	// the delete run in one transaction so a concurrent placeOrder
	// cannot slip between them.
	Delete(ctx context.Context, id string) error
}

type houseRepository struct {
	pool *pgxpool.Pool
}

// NewHouseRepository builds the repository.
func NewHouseRepository(pool *pgxpool.Pool) HouseRepository {
	return &houseRepository{pool: pool}
}

func (r *houseRepository) Create(ctx context.Context, house *domain.House) error {
	const query = `
        INSERT INTO houses (owner_id, title, description, location)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		house.OwnerID,
		house.Title,
		house.Description,
		house.Location,
	).Scan(&house.ID, &house.CreatedAt, &house.UpdatedAt)
}

func (r *houseRepository) Update(ctx context.Context, house *domain.House) error {
	const query = `
        UPDATE houses SET title=$1, description=$2, location=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		house.Title,
		house.Description,
		house.Location,
		house.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *houseRepository) GetByID(ctx context.Context, id string) (*domain.House, error) {
	const query = `
        SELECT id, owner_id, title, description, location, created_at, updated_at
        FROM houses WHERE id=$1`
	var house domain.House
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&house.ID,
		&house.OwnerID,
		&house.Title,
		&house.Description,
		&house.Location,
		&house.CreatedAt,
		&house.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &house, nil
}

func (r *houseRepository) List(ctx context.Context, limit, offset int) ([]domain.House, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, owner_id, title, description, location, created_at, updated_at
        FROM houses ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.House
	for rows.Next() {
		var house domain.House
		if err := rows.Scan(&house.ID, &house.OwnerID, &house.Title, &house.Description, &house.Location, &house.CreatedAt, &house.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, house)
	}
	return result, rows.Err()
}

func (r *houseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var houseID string
	if err := tx.QueryRow(ctx, `SELECT id FROM houses WHERE id=$1 FOR UPDATE`, id).Scan(&houseID); err != nil {
		return err
	}

	var open int
	const countQuery = `
        SELECT COUNT(*) FROM orders
        WHERE house_id=$1 AND status IN ('created','confirmed')`
	if err := tx.QueryRow(ctx, countQuery, id).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrOpenOrders
	}

	if _, err := tx.Exec(ctx, `DELETE FROM houses WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
