package booking

// This file is the single source of truth for capacity questions. The same
// functions gate +/- controls in the UI layer and drive the pre-commit
// validation; any divergence between those two call sites is a correctness
// bug, so neither call site computes capacity on its own.

// UnlimitedPackageQuantity is the addable-capacity sentinel for packages
// with no equipment requirements.
const UnlimitedPackageQuantity = 999

// RemainingCapacity computes how many units of an equipment item remain
// unbooked over the interval, considering persisted bookings only.
//
// Unknown equipment and equipment whose status is not "available" yield 0
// unconditionally. excludeBookingID removes one booking from the booked sum,
// used when editing an existing booking so it does not count against itself.
func RemainingCapacity(snap *Snapshot, equipmentID int64, ivl Interval, excludeBookingID *int64) int {
	item := snap.Equipment(equipmentID)
	if item == nil || !item.Bookable() {
		return 0
	}
	booked := 0
	for _, b := range snap.BookingsOverlapping(ivl, excludeBookingID) {
		booked += b.EquipmentQuantity(equipmentID)
	}
	remaining := item.TotalQuantity - booked
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DraftRemaining is RemainingCapacity minus everything the draft has already
// claimed for the item: equipment implied by all selected packages plus all
// manually-selected lines. This is the figure reported to the UI when gating
// a prospective new selection.
func DraftRemaining(snap *Snapshot, d Draft, equipmentID int64, excludeBookingID *int64) int {
	remaining := RemainingCapacity(snap, equipmentID, d.Interval(), excludeBookingID)
	remaining -= packageImplied(snap, d, equipmentID, nil)
	remaining -= d.EquipmentQuantity(equipmentID)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// remainingForEquipmentLine is the headroom available to one manual line:
// persisted bookings, every selected package, and every *other* manual line
// count against it, but the line being changed does not.
func remainingForEquipmentLine(snap *Snapshot, d Draft, equipmentID int64, excludeBookingID *int64) int {
	// Manual lines are unique per equipment id, so "every other manual line"
	// can never touch the id being changed; only packages and persisted
	// bookings compete with it.
	remaining := RemainingCapacity(snap, equipmentID, d.Interval(), excludeBookingID)
	remaining -= packageImplied(snap, d, equipmentID, nil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// remainingExcludingPackage is the headroom available to one package line:
// persisted bookings, other selected packages and all manual equipment lines
// count, the named package's own consumption does not.
func remainingExcludingPackage(snap *Snapshot, d Draft, equipmentID, packageID int64, excludeBookingID *int64) int {
	remaining := RemainingCapacity(snap, equipmentID, d.Interval(), excludeBookingID)
	remaining -= packageImplied(snap, d, equipmentID, &packageID)
	remaining -= d.EquipmentQuantity(equipmentID)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxPackageQuantity computes the highest total quantity of a package the
// draft could hold: the minimum over the package's equipment requirements of
// floor(remaining / perUnit), where remaining excludes the package's own
// current consumption. A package is only as available as its scarcest
// constituent resource. Packages with no requirements are effectively
// unlimited.
func MaxPackageQuantity(snap *Snapshot, d Draft, packageID int64, excludeBookingID *int64) int {
	pkg := snap.Package(packageID)
	if pkg == nil {
		return 0
	}
	if len(pkg.Requirements) == 0 {
		return UnlimitedPackageQuantity
	}
	max := UnlimitedPackageQuantity
	for _, req := range pkg.Requirements {
		if req.QuantityPerUnit <= 0 {
			continue
		}
		remaining := remainingExcludingPackage(snap, d, req.EquipmentID, packageID, excludeBookingID)
		if n := remaining / req.QuantityPerUnit; n < max {
			max = n
		}
	}
	return max
}

// packageImplied sums the equipment consumption implied by the draft's
// selected packages for one equipment id, skipping excludePackageID if given.
func packageImplied(snap *Snapshot, d Draft, equipmentID int64, excludePackageID *int64) int {
	total := 0
	for _, line := range d.Packages {
		if excludePackageID != nil && line.ID == *excludePackageID {
			continue
		}
		pkg := snap.Package(line.ID)
		if pkg == nil {
			continue
		}
		total += pkg.RequirementFor(equipmentID) * line.Quantity
	}
	return total
}
