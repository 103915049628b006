package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingEquipmentLine is one equipment entry on a booking. Persisted lines
// carry the merged total per item (manual selection plus package-implied
// units), so capacity sums read straight off stored bookings.
type BookingEquipmentLine struct {
	EquipmentID int64          `json:"equipment_id" db:"equipment_id" binding:"required"`
	Quantity    int            `json:"quantity" db:"quantity" binding:"required,gte=1"`
	Equipment   *EquipmentItem `json:"equipment,omitempty"` // For joining with equipment details
}

// BookingPackageLine is one selected package entry on a booking.
type BookingPackageLine struct {
	PackageID int64    `json:"package_id" db:"package_id" binding:"required"`
	Quantity  int      `json:"quantity" db:"quantity" binding:"required,gte=1"`
	Package   *Package `json:"package,omitempty"` // For joining with package details
}

// Booking represents a confirmed equipment/package reservation for a
// half-open time window [StartTime, EndTime).
type Booking struct {
	ID            int64                  `json:"id" db:"id"`
	CustomerID    *int64                 `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName  string                 `json:"customer_name" db:"customer_name" binding:"required"`
	CustomerPhone *string                `json:"customer_phone,omitempty" db:"customer_phone"`
	StartTime     time.Time              `json:"start_time" db:"start_time" binding:"required"`
	EndTime       time.Time              `json:"end_time" db:"end_time" binding:"required"`
	Price         decimal.Decimal        `json:"price" db:"price"`
	Equipment     []BookingEquipmentLine `json:"equipment_items"`
	Packages      []BookingPackageLine   `json:"package_items"`
	Paid          bool                   `json:"paid" db:"paid"`
	PaidAt        *time.Time             `json:"paid_at,omitempty" db:"paid_at"`
	Invoiced      bool                   `json:"invoiced" db:"invoiced"`
	InvoiceNumber *string                `json:"invoice_number,omitempty" db:"invoice_number"`
	Notes         *string                `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
	Customer      *Customer              `json:"customer,omitempty"` // For joining with customer details
}

// EquipmentQuantity returns the manually-selected quantity of the given
// equipment item on this booking (0 if absent).
func (b *Booking) EquipmentQuantity(equipmentID int64) int {
	for _, line := range b.Equipment {
		if line.EquipmentID == equipmentID {
			return line.Quantity
		}
	}
	return 0
}

// BookingPatch carries the follow-up fields written after a booking row
// already exists. Nil fields are left untouched.
type BookingPatch struct {
	CustomerID    *int64     `json:"customer_id,omitempty"`
	CustomerPhone *string    `json:"customer_phone,omitempty"`
	Paid          *bool      `json:"paid,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Invoiced      *bool      `json:"invoiced,omitempty"`
	InvoiceNumber *string    `json:"invoice_number,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// BookingFilters defines the available filters for querying bookings.
type BookingFilters struct {
	CustomerID *int64     `form:"customer_id"`
	DateFrom   *time.Time `form:"date_from"`
	DateTo     *time.Time `form:"date_to"`
	Paid       *bool      `form:"paid"`
	Invoiced   *bool      `form:"invoiced"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}
