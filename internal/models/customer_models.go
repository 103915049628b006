package models

import "time"

// Customer represents an entry in the customer registry. Bookings carry a
// free-text customer name; the registry is reconciled at commit time by
// partial phone match.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	Phone     string    `json:"phone" db:"phone" binding:"required"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
