package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/models"
)

func TestMergedEquipmentSumsPackageAndManualLines(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 10, models.EquipmentStatusAvailable, 10),
			equipment(2, "Paddle", 10, models.EquipmentStatusAvailable, 2),
		},
		[]models.Package{pkg(100, "Tour", 80,
			models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 2},
			models.PackageRequirement{EquipmentID: 2, QuantityPerUnit: 2},
		)},
		nil,
	)
	d := NewDraft(at(9, 0), 60)
	d = d.ApplyPackageDelta(snap, 100, 2, nil)
	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)

	merged := MergedEquipment(snap, d)
	require.Len(t, merged, 2)
	assert.Equal(t, models.BookingEquipmentLine{EquipmentID: 1, Quantity: 5}, merged[0])
	assert.Equal(t, models.BookingEquipmentLine{EquipmentID: 2, Quantity: 4}, merged[1])
}

func TestValidateForCommitRejectsInvalidDrafts(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "SUP Board", 3, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)

	var noStart Draft
	noStart.Equipment = []SelectedLine{{ID: 1, Quantity: 1}}
	var vErr *ValidationError
	require.ErrorAs(t, ValidateForCommit(snap, noStart, nil), &vErr)
	assert.Equal(t, "start_time", vErr.Field)

	empty := NewDraft(at(9, 0), 60)
	require.ErrorAs(t, ValidateForCommit(snap, empty, nil), &vErr)
	assert.Equal(t, "selection", vErr.Field)
}

func TestValidateForCommitRejectsUnavailableEquipment(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "Broken Board", 3, models.EquipmentStatusMaintenance, 10)},
		nil, nil,
	)
	d := NewDraft(at(9, 0), 60)
	d.Equipment = []SelectedLine{{ID: 1, Quantity: 1}}

	var uErr *UnavailableEquipmentError
	require.ErrorAs(t, ValidateForCommit(snap, d, nil), &uErr)
	assert.Equal(t, "Broken Board", uErr.Name)
}

func TestValidateForCommitRejectsOverbookingRace(t *testing.T) {
	// Two drafts both selected the last unit before either committed. The
	// first commit lands; re-validating the second against refreshed data
	// must fail with the typed availability error.
	item := equipment(1, "Last Kayak", 1, models.EquipmentStatusAvailable, 10)
	before := NewSnapshot([]models.EquipmentItem{item}, nil, nil)

	first := NewDraft(at(9, 0), 120).ApplyEquipmentDelta(before, 1, 1, nil)
	second := NewDraft(at(10, 0), 120).ApplyEquipmentDelta(before, 1, 1, nil)
	require.NoError(t, ValidateForCommit(before, first, nil))
	require.NoError(t, ValidateForCommit(before, second, nil))

	// First draft commits; the refreshed snapshot now carries its booking.
	after := NewSnapshot([]models.EquipmentItem{item}, nil, []models.Booking{
		confirmedBooking(50, at(9, 0), at(11, 0), models.BookingEquipmentLine{EquipmentID: 1, Quantity: 1}),
	})

	var iErr *InsufficientAvailabilityError
	require.ErrorAs(t, ValidateForCommit(after, second, nil), &iErr)
	assert.Equal(t, "Last Kayak", iErr.Name)
	assert.Equal(t, 0, iErr.Available)
	assert.Equal(t, 1, iErr.Requested)
}

func TestValidateForCommitExcludesEditedBooking(t *testing.T) {
	item := equipment(1, "Kayak", 1, models.EquipmentStatusAvailable, 10)
	snap := NewSnapshot([]models.EquipmentItem{item}, nil, []models.Booking{
		confirmedBooking(50, at(9, 0), at(11, 0), models.BookingEquipmentLine{EquipmentID: 1, Quantity: 1}),
	})

	d := NewDraft(at(9, 0), 120)
	d.Equipment = []SelectedLine{{ID: 1, Quantity: 1}}

	require.Error(t, ValidateForCommit(snap, d, nil))
	edited := int64(50)
	assert.NoError(t, ValidateForCommit(snap, d, &edited), "an edit re-using its own units is valid")
}
