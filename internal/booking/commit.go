package booking

import (
	"sort"

	"gear_rental_backend/internal/models"
)

// MergedEquipment flattens a draft's full equipment consumption by folding
// every selected package unit's requirements into the manual selection via
// MergePackageEquipment. This is what the pre-commit check validates and
// what gets persisted on the booking's equipment lines.
func MergedEquipment(snap *Snapshot, d Draft) []models.BookingEquipmentLine {
	flat := d
	for _, line := range d.Packages {
		pkg := snap.Package(line.ID)
		if pkg == nil {
			continue
		}
		for unit := 0; unit < line.Quantity; unit++ {
			flat = flat.MergePackageEquipment(pkg)
		}
	}

	lines := make([]SelectedLine, len(flat.Equipment))
	copy(lines, flat.Equipment)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })

	merged := make([]models.BookingEquipmentLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		merged = append(merged, models.BookingEquipmentLine{EquipmentID: line.ID, Quantity: line.Quantity})
	}
	return merged
}

// ValidateForCommit runs the authoritative pre-commit check against a fresh
// snapshot. It is mandatory immediately before persisting even though the
// interactive layer continuously enforces the same limits: it closes the race
// window between the user's last interaction and the actual write.
//
// The returned error is one of ValidationError, UnavailableEquipmentError or
// InsufficientAvailabilityError; nil means the draft may be persisted.
func ValidateForCommit(snap *Snapshot, d Draft, excludeBookingID *int64) error {
	if d.Start.IsZero() {
		return &ValidationError{Field: "start_time", Reason: "start time is required"}
	}
	if !d.Interval().Valid() {
		return &ValidationError{Field: "duration_minutes", Reason: "booking window must have positive duration"}
	}
	if d.Empty() {
		return &ValidationError{Field: "selection", Reason: "select at least one equipment item or package"}
	}

	ivl := d.Interval()
	for _, line := range MergedEquipment(snap, d) {
		item := snap.Equipment(line.EquipmentID)
		if item == nil {
			return &ValidationError{Field: "selected_equipment", Reason: "unknown equipment item"}
		}
		if !item.Bookable() {
			return &UnavailableEquipmentError{EquipmentID: item.ID, Name: item.Name}
		}
		remaining := RemainingCapacity(snap, line.EquipmentID, ivl, excludeBookingID)
		if line.Quantity > remaining {
			return &InsufficientAvailabilityError{
				EquipmentID: item.ID,
				Name:        item.Name,
				Available:   remaining,
				Requested:   line.Quantity,
			}
		}
	}
	return nil
}
