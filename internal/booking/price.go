package booking

import (
	"github.com/shopspring/decimal"

	"gear_rental_backend/internal/models"
)

// minBillableHours floors the hourly computation so near-zero durations do
// not produce division artifacts.
var minBillableHours = decimal.NewFromFloat(0.01)

var minutesPerHour = decimal.NewFromInt(60)

// ComputePrice derives the automatic price for a draft:
//
//	sum(package.fixedPrice x qty) + sum(equipment.hourlyRate x qty x hours)
//
// where hours = max(0.01, durationMinutes/60), rounded to 2 decimal places
// half-up on cents. Package-bundled equipment is not charged hourly; only
// manual equipment lines enter the hourly sum, so packages and manual
// equipment are additive without double-counting.
//
// Returns nil (price undefined, not zero) while the selection is empty.
func ComputePrice(snap *Snapshot, d Draft) *decimal.Decimal {
	if d.Empty() {
		return nil
	}
	hours := decimal.NewFromInt(int64(d.Interval().Minutes())).Div(minutesPerHour)
	if hours.LessThan(minBillableHours) {
		hours = minBillableHours
	}

	total := decimal.Zero
	for _, line := range d.Packages {
		pkg := snap.Package(line.ID)
		if pkg == nil {
			continue
		}
		total = total.Add(pkg.FixedPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	for _, line := range d.Equipment {
		item := snap.Equipment(line.ID)
		if item == nil {
			continue
		}
		total = total.Add(item.HourlyRate.Mul(decimal.NewFromInt(int64(line.Quantity))).Mul(hours))
	}
	rounded := total.Round(2)
	return &rounded
}

// EffectivePrice is the price the draft currently carries: the manual value
// when the user has taken control, the derived value otherwise.
func (d Draft) EffectivePrice(snap *Snapshot) *decimal.Decimal {
	if d.PriceMode == PriceModeManual && d.ManualPrice != nil {
		p := *d.ManualPrice
		return &p
	}
	return ComputePrice(snap, d)
}

// ReconstructPriceMode decides, for a booking loaded into an edit draft,
// whether its stored price was manual. The manual/automatic flag is not
// persisted, only the resulting number, so the mode is re-derived by
// comparing the stored price against the price the booking's own selection
// and duration would compute. A mismatch means manual (preserve the stored
// value); a match, or no derivable computed value, means automatic.
//
// The heuristic can misclassify a manual price that happens to equal the
// computed one; see DESIGN.md for the persisted-flag alternative.
func ReconstructPriceMode(snap *Snapshot, b *models.Booking) PriceMode {
	d := draftFromBookingSelection(snap, b)
	computed := ComputePrice(snap, d)
	if computed == nil {
		return PriceModeAutomatic
	}
	if computed.Equal(b.Price.Round(2)) {
		return PriceModeAutomatic
	}
	return PriceModeManual
}

// DraftFromBooking seeds an edit-mode draft from a persisted booking,
// reconstructing the price mode heuristically.
func DraftFromBooking(snap *Snapshot, b *models.Booking) Draft {
	d := draftFromBookingSelection(snap, b)
	if ReconstructPriceMode(snap, b) == PriceModeManual {
		return d.WithManualPrice(b.Price)
	}
	return d
}

// draftFromBookingSelection rebuilds the manual selection a booking was
// committed with. Persisted equipment lines include the package-implied
// units (so overlap sums stay complete across bookings); the implied part is
// subtracted back out here so an edit draft does not double-count it.
func draftFromBookingSelection(snap *Snapshot, b *models.Booking) Draft {
	d := NewDraft(b.StartTime, (Interval{Start: b.StartTime, End: b.EndTime}).Minutes())
	for _, line := range b.Packages {
		d.Packages = append(d.Packages, SelectedLine{ID: line.PackageID, Quantity: line.Quantity})
	}
	for _, line := range b.Equipment {
		manual := line.Quantity - packageImplied(snap, d, line.EquipmentID, nil)
		if manual > 0 {
			d.Equipment = append(d.Equipment, SelectedLine{ID: line.EquipmentID, Quantity: manual})
		}
	}
	return d
}
