package dto

import (
	"time"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// PlaceOrderRequest payload. Day and Time optionally describe when the
// buyer intends to consume the plan.
type PlaceOrderRequest struct {
	PlanID string  `json:"plan_id" validate:"required"`
	Day    *string `json:"day"`
	Time   *string `json:"time"`
}

// AdvanceOrderRequest payload for status transitions.
type AdvanceOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderResponse public order fields. Amount is the price snapshot taken
// at placement, rendered as a decimal string.
type OrderResponse struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	HouseID       string             `json:"house_id"`
	PlanID        string             `json:"plan_id"`
	Status        domain.OrderStatus `json:"status"`
	Amount        string             `json:"amount"`
	Version       int64              `json:"version"`
	NextRenewalAt *time.Time         `json:"next_renewal_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
