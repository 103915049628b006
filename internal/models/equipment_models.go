package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquipmentStatus defines the type for equipment item statuses
type EquipmentStatus string

const (
	EquipmentStatusAvailable   EquipmentStatus = "available"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusRetired     EquipmentStatus = "retired"
)

// IsValidEquipmentStatus checks if the provided status string is a valid EquipmentStatus.
func IsValidEquipmentStatus(status string) bool {
	switch EquipmentStatus(status) {
	case EquipmentStatusAvailable,
		EquipmentStatusMaintenance,
		EquipmentStatusRetired:
		return true
	default:
		return false
	}
}

// EquipmentItem represents a rentable piece of stock (e.g., a paddleboard, a tent).
// TotalQuantity is the physical stock count; bookings consume units of it for
// the duration of their time window.
type EquipmentItem struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name" binding:"required"`
	TotalQuantity int             `json:"total_quantity" db:"total_quantity"`
	Status        EquipmentStatus `json:"status" db:"status"`
	HourlyRate    decimal.Decimal `json:"hourly_rate" db:"hourly_rate"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Bookable reports whether units of this item may be placed on new bookings.
// Maintenance and retired equipment is never bookable regardless of quantity.
func (e *EquipmentItem) Bookable() bool {
	return e.Status == EquipmentStatusAvailable
}
