package dto

import "time"

// HouseRequest payload for house create/update.
type HouseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// HouseResponse public house fields.
type HouseResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
