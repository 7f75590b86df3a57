package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomColor is a seller-defined product color option
type CustomColor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Hex       string    `json:"hex" db:"hex"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CustomSize is a seller-defined product size option
type CustomSize struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TrackingConfig holds a storefront analytics integration
type TrackingConfig struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OwnerID    uuid.UUID `json:"owner_id" db:"owner_id"`
	Provider   string    `json:"provider" db:"provider"`
	TrackingID string    `json:"tracking_id" db:"tracking_id"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
