package domain

import "time"

// House models a vendor offering meal plans. OwnerID references a user
// whose role permits ownership; only that user (or an admin) may mutate
// the house or its plans.
type House struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	Location    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
