package events

import (
	"time"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderPlaced        EventType = "order_placed"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventHouseDeleted       EventType = "house_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderPlacedPayload payload.
type OrderPlacedPayload struct {
	OrderID       string              `json:"order_id"`
	HouseID       string              `json:"house_id"`
	PlanID        string              `json:"plan_id"`
	Amount        string              `json:"amount"`
	BillingCycle  domain.BillingCycle `json:"billing_cycle"`
	NextRenewalAt *time.Time          `json:"next_renewal_at,omitempty"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OrderID   string             `json:"order_id"`
	HouseID   string             `json:"house_id"`
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
}

// HouseDeletedPayload payload.
type HouseDeletedPayload struct {
	HouseID string `json:"house_id"`
	Title   string `json:"title"`
}
