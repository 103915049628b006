package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"gear_rental_backend/internal/models"
)

// PriceMode distinguishes an automatically derived price from one the user
// has taken manual control of.
type PriceMode string

const (
	PriceModeAutomatic PriceMode = "automatic"
	PriceModeManual    PriceMode = "manual"
)

// SelectedLine is one (id, quantity) selection in a draft. Lines never exist
// with quantity 0: removing the last unit removes the line.
type SelectedLine struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// Draft is an in-progress, unpersisted booking selection. Drafts are value
// types: every transition returns a new Draft and never mutates the receiver,
// so rapid-fire transitions compose from the previous state instead of
// clobbering each other.
type Draft struct {
	Start           time.Time        `json:"start_time"`
	DurationMinutes int              `json:"duration_minutes"`
	Equipment       []SelectedLine   `json:"selected_equipment"`
	Packages        []SelectedLine   `json:"selected_packages"`
	PriceMode       PriceMode        `json:"price_mode"`
	ManualPrice     *decimal.Decimal `json:"manual_price,omitempty"`
}

// NewDraft creates an empty automatic-price draft for the given window.
func NewDraft(start time.Time, durationMinutes int) Draft {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	return Draft{
		Start:           start,
		DurationMinutes: durationMinutes,
		PriceMode:       PriceModeAutomatic,
	}
}

// Interval returns the draft's booking window.
func (d Draft) Interval() Interval {
	return NewInterval(d.Start, d.DurationMinutes)
}

// EquipmentQuantity returns the selected quantity for an equipment id (0 if absent).
func (d Draft) EquipmentQuantity(equipmentID int64) int {
	return lineQuantity(d.Equipment, equipmentID)
}

// PackageQuantity returns the selected quantity for a package id (0 if absent).
func (d Draft) PackageQuantity(packageID int64) int {
	return lineQuantity(d.Packages, packageID)
}

// Empty reports whether the draft has no selection at all.
func (d Draft) Empty() bool {
	return len(d.Equipment) == 0 && len(d.Packages) == 0
}

// ApplyEquipmentDelta applies a bounded +/- to one manual equipment line.
// The target quantity is clamped to [0, current+remaining] where remaining
// counts persisted bookings and all selected packages against the item, so a
// burst of increments can never push the line past capacity. A line clamped
// to 0 is removed entirely.
func (d Draft) ApplyEquipmentDelta(snap *Snapshot, equipmentID int64, delta int, excludeBookingID *int64) Draft {
	current := d.EquipmentQuantity(equipmentID)
	remaining := remainingForEquipmentLine(snap, d, equipmentID, excludeBookingID)
	target := clamp(current+delta, 0, remaining)
	out := d.clone()
	out.Equipment = upsertLine(out.Equipment, equipmentID, target)
	return out
}

// ApplyPackageDelta applies a bounded +/- to one package line. The ceiling is
// the min-over-requirements rule from MaxPackageQuantity.
func (d Draft) ApplyPackageDelta(snap *Snapshot, packageID int64, delta int, excludeBookingID *int64) Draft {
	current := d.PackageQuantity(packageID)
	max := MaxPackageQuantity(snap, d, packageID, excludeBookingID)
	target := clamp(current+delta, 0, max)
	out := d.clone()
	out.Packages = upsertLine(out.Packages, packageID, target)
	return out
}

// WithInterval moves the booking window and re-clamps every selected line to
// the capacity available at the new window. Lines that drop to 0 are removed.
// This runs on every start or duration change, not just on quantity edits.
func (d Draft) WithInterval(snap *Snapshot, start time.Time, durationMinutes int, excludeBookingID *int64) Draft {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	out := d.clone()
	out.Start = start
	out.DurationMinutes = durationMinutes

	// Iterate snapshots of the ids, not the live slices: upsertLine removes
	// lines clamped to 0, which would shift unvisited elements under a
	// direct range and let them escape re-clamping.
	// Packages first: their implied consumption feeds the equipment clamp.
	for _, id := range lineIDs(out.Packages) {
		max := MaxPackageQuantity(snap, out, id, excludeBookingID)
		if out.PackageQuantity(id) > max {
			out.Packages = upsertLine(out.Packages, id, max)
		}
	}
	for _, id := range lineIDs(out.Equipment) {
		remaining := remainingForEquipmentLine(snap, out, id, excludeBookingID)
		if out.EquipmentQuantity(id) > remaining {
			out.Equipment = upsertLine(out.Equipment, id, remaining)
		}
	}
	return out
}

// MergePackageEquipment merges a package's equipment requirements into the
// manual selection non-destructively: quantities add to already-present
// lines and insert new lines otherwise. A manual selection is never
// silently discarded.
func (d Draft) MergePackageEquipment(pkg *models.Package) Draft {
	out := d.clone()
	for _, req := range pkg.Requirements {
		if req.QuantityPerUnit <= 0 {
			continue
		}
		out.Equipment = upsertLine(out.Equipment, req.EquipmentID, out.EquipmentQuantity(req.EquipmentID)+req.QuantityPerUnit)
	}
	return out
}

// WithManualPrice pins the price to a user-entered value. Manual mode is set
// the instant the price field is edited and survives all later selection and
// duration changes.
func (d Draft) WithManualPrice(price decimal.Decimal) Draft {
	out := d.clone()
	out.PriceMode = PriceModeManual
	out.ManualPrice = &price
	return out
}

// WithAutomaticPrice is the explicit escape hatch back to derived pricing.
func (d Draft) WithAutomaticPrice() Draft {
	out := d.clone()
	out.PriceMode = PriceModeAutomatic
	out.ManualPrice = nil
	return out
}

// clone deep-copies the draft's slices so transitions never alias the
// previous state.
func (d Draft) clone() Draft {
	out := d
	out.Equipment = append([]SelectedLine(nil), d.Equipment...)
	out.Packages = append([]SelectedLine(nil), d.Packages...)
	return out
}

func lineQuantity(lines []SelectedLine, id int64) int {
	for _, line := range lines {
		if line.ID == id {
			return line.Quantity
		}
	}
	return 0
}

// upsertLine sets the quantity for an id, removing the line when quantity
// reaches 0 and appending a new line when the id is absent.
func upsertLine(lines []SelectedLine, id int64, quantity int) []SelectedLine {
	for i, line := range lines {
		if line.ID != id {
			continue
		}
		if quantity <= 0 {
			return append(lines[:i], lines[i+1:]...)
		}
		lines[i].Quantity = quantity
		return lines
	}
	if quantity <= 0 {
		return lines
	}
	return append(lines, SelectedLine{ID: id, Quantity: quantity})
}

// lineIDs copies out the ids so callers can mutate the line slice while
// visiting every selection exactly once.
func lineIDs(lines []SelectedLine) []int64 {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ID
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
