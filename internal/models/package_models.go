package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageRequirement declares how many units of one equipment item are
// consumed by a single unit of the owning package.
type PackageRequirement struct {
	EquipmentID     int64          `json:"equipment_id" db:"equipment_id" binding:"required"`
	QuantityPerUnit int            `json:"quantity_per_unit" db:"quantity_per_unit" binding:"required,gte=1"`
	Equipment       *EquipmentItem `json:"equipment,omitempty"` // For joining with equipment details
}

// Package represents a fixed-price bundle (e.g., "Family Day Out") that
// implicitly consumes a declared quantity of one or more equipment items
// per package unit booked.
type Package struct {
	ID           int64                `json:"id" db:"id"`
	Name         string               `json:"name" db:"name" binding:"required"`
	FixedPrice   decimal.Decimal      `json:"fixed_price" db:"fixed_price"`
	Description  *string              `json:"description,omitempty" db:"description"`
	Requirements []PackageRequirement `json:"equipment_requirements"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" db:"updated_at"`
}

// RequirementFor returns the per-unit quantity this package consumes of the
// given equipment item, or 0 if the package does not reference it.
func (p *Package) RequirementFor(equipmentID int64) int {
	for _, req := range p.Requirements {
		if req.EquipmentID == equipmentID {
			return req.QuantityPerUnit
		}
	}
	return 0
}
