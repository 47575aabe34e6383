package domain

import "time"

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

// Order is a user's commitment to a meal plan. AmountCents is a snapshot
// of the plan price at placement time and never changes afterwards.
// Version backs the optimistic check on status updates.
type Order struct {
	ID          string
	UserID      string
	HouseID     string
	PlanID      string
	Status      OrderStatus
	AmountCents Cents
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
