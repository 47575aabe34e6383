package dto

import (
	"time"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// PlanItemRequest line item input.
type PlanItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
	Note     *string `json:"note"`
}

// MealPlanRequest payload for plan create/update. Price is a decimal
// string such as "12.50"; it is parsed into cents server-side.
type MealPlanRequest struct {
	Name          string            `json:"name" validate:"required"`
	Price         string            `json:"price" validate:"required"`
	BillingCycle  string            `json:"billing_cycle" validate:"required"`
	AvailableDays []string          `json:"available_days"`
	StartTime     *string           `json:"start_time"`
	EndTime       *string           `json:"end_time"`
	Items         []PlanItemRequest `json:"items"`
}

// MealPlanResponse public plan fields.
type MealPlanResponse struct {
	ID            string              `json:"id"`
	HouseID       string              `json:"house_id"`
	Name          string              `json:"name"`
	Price         string              `json:"price"`
	BillingCycle  domain.BillingCycle `json:"billing_cycle"`
	AvailableDays []domain.Weekday    `json:"available_days"`
	StartTime     *string             `json:"start_time,omitempty"`
	EndTime       *string             `json:"end_time,omitempty"`
	Items         []domain.PlanItem   `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
