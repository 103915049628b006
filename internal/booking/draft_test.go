package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/models"
)

func TestApplyEquipmentDeltaClampsToCapacity(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	d := NewDraft(at(9, 0), 120)

	d = d.ApplyEquipmentDelta(snap, 1, 5, nil)
	assert.Equal(t, 3, d.EquipmentQuantity(1), "increment past stock clamps to stock")

	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)
	assert.Equal(t, 3, d.EquipmentQuantity(1), "further increments stay clamped")
}

func TestApplyEquipmentDeltaIdempotentZero(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	d := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snap, 1, 2, nil)
	require.Equal(t, 2, d.EquipmentQuantity(1))

	// Removing the full selected quantity always removes the line entirely;
	// lines never exist with quantity 0.
	d = d.ApplyEquipmentDelta(snap, 1, -d.EquipmentQuantity(1), nil)
	assert.Empty(t, d.Equipment)

	d = d.ApplyEquipmentDelta(snap, 1, -1, nil)
	assert.Empty(t, d.Equipment, "decrementing an absent line stays absent")
}

func TestApplyEquipmentDeltaBurstComposesFromPreviousState(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 2, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	// Two rapid +1 deltas applied in sequence from the previous state must
	// both land; a third is clamped away.
	d := NewDraft(at(9, 0), 60)
	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)
	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)
	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)
	assert.Equal(t, 2, d.EquipmentQuantity(1))
}

func TestApplyEquipmentDeltaDoesNotMutateReceiver(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	before := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snap, 1, 1, nil)
	_ = before.ApplyEquipmentDelta(snap, 1, 1, nil)
	assert.Equal(t, 1, before.EquipmentQuantity(1), "transitions return new drafts, never mutate in place")
}

func TestApplyPackageDeltaRespectsMinRule(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 4, models.EquipmentStatusAvailable, 10),
			equipment(2, "Paddle", 2, models.EquipmentStatusAvailable, 2),
		},
		[]models.Package{pkg(100, "Tour", 80,
			models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 1},
			models.PackageRequirement{EquipmentID: 2, QuantityPerUnit: 1},
		)},
		nil,
	)
	d := NewDraft(at(9, 0), 60)

	d = d.ApplyPackageDelta(snap, 100, 5, nil)
	assert.Equal(t, 2, d.PackageQuantity(100), "scarcest requirement (paddles) caps the package")

	d = d.ApplyPackageDelta(snap, 100, -2, nil)
	assert.Empty(t, d.Packages)
}

func TestApplyPackageDeltaAccountsForManualSelection(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		[]models.Package{pkg(100, "Solo", 40, models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 1})},
		nil,
	)
	d := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snap, 1, 2, nil)

	d = d.ApplyPackageDelta(snap, 100, 3, nil)
	assert.Equal(t, 1, d.PackageQuantity(100), "manual lines shrink what the package may claim")
}

func TestWithIntervalReclampsSelection(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		nil,
		[]models.Booking{
			confirmedBooking(10, at(12, 0), at(14, 0), models.BookingEquipmentLine{EquipmentID: 1, Quantity: 2}),
		},
	)
	// Morning window: all 3 boards free.
	d := NewDraft(at(9, 0), 120).ApplyEquipmentDelta(snap, 1, 3, nil)
	require.Equal(t, 3, d.EquipmentQuantity(1))

	// Moving the window onto the existing booking re-clamps the line.
	d = d.WithInterval(snap, at(12, 0), 60, nil)
	assert.Equal(t, 1, d.EquipmentQuantity(1))

	// A window with no capacity at all drops the line entirely.
	snapFull := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 2, models.EquipmentStatusAvailable, 10)},
		nil,
		[]models.Booking{
			confirmedBooking(10, at(12, 0), at(14, 0), models.BookingEquipmentLine{EquipmentID: 1, Quantity: 2}),
		},
	)
	d2 := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snapFull, 1, 2, nil)
	require.Equal(t, 2, d2.EquipmentQuantity(1))
	d2 = d2.WithInterval(snapFull, at(12, 30), 60, nil)
	assert.Empty(t, d2.Equipment)
}

func TestWithIntervalReclampsEveryLineWhenOneDropsOut(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 2, models.EquipmentStatusAvailable, 10),
			equipment(2, "Paddle", 3, models.EquipmentStatusAvailable, 2),
			equipment(3, "Vest", 5, models.EquipmentStatusAvailable, 1),
		},
		nil,
		[]models.Booking{
			confirmedBooking(10, at(12, 0), at(14, 0),
				models.BookingEquipmentLine{EquipmentID: 1, Quantity: 2},
				models.BookingEquipmentLine{EquipmentID: 2, Quantity: 2},
			),
		},
	)
	d := NewDraft(at(9, 0), 60)
	d = d.ApplyEquipmentDelta(snap, 1, 2, nil)
	d = d.ApplyEquipmentDelta(snap, 2, 2, nil)
	d = d.ApplyEquipmentDelta(snap, 3, 2, nil)
	require.Len(t, d.Equipment, 3)

	// The new window leaves 0 boards, 1 paddle, 5 vests. Removing the board
	// line must not let the paddle line skip its own re-clamp.
	d = d.WithInterval(snap, at(12, 0), 60, nil)
	assert.Equal(t, 0, d.EquipmentQuantity(1), "board line is removed")
	assert.Equal(t, 1, d.EquipmentQuantity(2), "paddle line re-clamps to remaining")
	assert.Equal(t, 2, d.EquipmentQuantity(3), "vest line is untouched")
}

func TestWithIntervalDefaultsDuration(t *testing.T) {
	snap := NewSnapshot(nil, nil, nil)
	d := NewDraft(at(9, 0), 90).WithInterval(snap, at(10, 0), 0, nil)
	assert.Equal(t, DefaultDurationMinutes, d.DurationMinutes)
}

func TestMergePackageEquipmentIsNonDestructive(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 10, models.EquipmentStatusAvailable, 10),
			equipment(2, "Paddle", 10, models.EquipmentStatusAvailable, 2),
		},
		nil, nil,
	)
	tour := pkg(100, "Tour", 80,
		models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 2},
		models.PackageRequirement{EquipmentID: 2, QuantityPerUnit: 1},
	)

	d := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snap, 1, 1, nil)
	d = d.MergePackageEquipment(&tour)

	// Existing manual line gains the package quantity; new lines are inserted.
	assert.Equal(t, 3, d.EquipmentQuantity(1))
	assert.Equal(t, 1, d.EquipmentQuantity(2))
}

func TestManualPriceTransitions(t *testing.T) {
	d := NewDraft(at(9, 0), 60)
	assert.Equal(t, PriceModeAutomatic, d.PriceMode)

	d = d.WithManualPrice(decimal.RequireFromString("99.99"))
	assert.Equal(t, PriceModeManual, d.PriceMode)
	require.NotNil(t, d.ManualPrice)

	d = d.WithAutomaticPrice()
	assert.Equal(t, PriceModeAutomatic, d.PriceMode)
	assert.Nil(t, d.ManualPrice)
}
