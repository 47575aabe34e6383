package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// MealPlanRepository manages meal plan persistence. Items are stored as
// a JSONB blob and always round-trip through a validated list.
type MealPlanRepository interface {
	Create(ctx context.Context, plan *domain.MealPlan) error
	Update(ctx context.Context, plan *domain.MealPlan) error
	GetByID(ctx context.Context, id string) (*domain.MealPlan, error)
	ListByHouse(ctx context.Context, houseID string) ([]domain.MealPlan, error)
	Delete(ctx context.Context, id string) error
}

type mealPlanRepository struct {
	pool *pgxpool.Pool
}

// NewMealPlanRepository builds the repository.
func NewMealPlanRepository(pool *pgxpool.Pool) MealPlanRepository {
	return &mealPlanRepository{pool: pool}
}

func (r *mealPlanRepository) Create(ctx context.Context, plan *domain.MealPlan) error {
	items, err := json.Marshal(plan.Items)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO meal_plans (house_id, name, price_cents, billing_cycle, available_days, start_time, end_time, items)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		plan.HouseID,
		plan.Name,
		int64(plan.PriceCents),
		plan.BillingCycle,
		weekdayStrings(plan.AvailableDays),
		plan.StartTime,
		plan.EndTime,
		items,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *mealPlanRepository) Update(ctx context.Context, plan *domain.MealPlan) error {
	items, err := json.Marshal(plan.Items)
	if err != nil {
		return err
	}
	const query = `
        UPDATE meal_plans SET name=$1, price_cents=$2, billing_cycle=$3, available_days=$4,
            start_time=$5, end_time=$6, items=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		plan.Name,
		int64(plan.PriceCents),
		plan.BillingCycle,
		weekdayStrings(plan.AvailableDays),
		plan.StartTime,
		plan.EndTime,
		items,
		plan.ID,
	).Scan(&plan.UpdatedAt)
}

func (r *mealPlanRepository) GetByID(ctx context.Context, id string) (*domain.MealPlan, error) {
	const query = `
        SELECT id, house_id, name, price_cents, billing_cycle, available_days, start_time, end_time, items, created_at, updated_at
        FROM meal_plans WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanMealPlan(row)
}

func (r *mealPlanRepository) ListByHouse(ctx context.Context, houseID string) ([]domain.MealPlan, error) {
	const query = `
        SELECT id, house_id, name, price_cents, billing_cycle, available_days, start_time, end_time, items, created_at, updated_at
        FROM meal_plans WHERE house_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, houseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MealPlan
	for rows.Next() {
		plan, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *plan)
	}
	return result, rows.Err()
}

func (r *mealPlanRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM meal_plans WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMealPlan(row pgx.Row) (*domain.MealPlan, error) {
	var (
		plan       domain.MealPlan
		priceCents int64
		days       []string
		rawItems   []byte
	)
	if err := row.Scan(
		&plan.ID,
		&plan.HouseID,
		&plan.Name,
		&priceCents,
		&plan.BillingCycle,
		&days,
		&plan.StartTime,
		&plan.EndTime,
		&rawItems,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	plan.PriceCents = domain.Cents(priceCents)
	plan.AvailableDays = make([]domain.Weekday, 0, len(days))
	for _, day := range days {
		plan.AvailableDays = append(plan.AvailableDays, domain.Weekday(day))
	}
	if err := json.Unmarshal(rawItems, &plan.Items); err != nil {
		return nil, err
	}
	return &plan, nil
}

func weekdayStrings(days []domain.Weekday) []string {
	out := make([]string, 0, len(days))
	for _, day := range days {
		out = append(out, string(day))
	}
	return out
}
