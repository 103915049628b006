package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/models"
)

func TestComputePriceHourly(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "E1", 5, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	d := NewDraft(at(9, 0), 90).ApplyEquipmentDelta(snap, 1, 2, nil)

	price := ComputePrice(snap, d)
	require.NotNil(t, price)
	// 2 units x 10/h x 1.5h
	assert.True(t, price.Equal(decimal.RequireFromString("30.00")), "got %s", price)
}

func TestComputePriceUndefinedWhileEmpty(t *testing.T) {
	snap := NewSnapshot(nil, nil, nil)
	assert.Nil(t, ComputePrice(snap, NewDraft(at(9, 0), 60)), "empty selection has no price, not a zero price")
}

func TestComputePricePackagesAndManualEquipmentAreAdditive(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 10, models.EquipmentStatusAvailable, 10),
			equipment(2, "Drybag", 10, models.EquipmentStatusAvailable, 3),
		},
		[]models.Package{pkg(100, "Tour", 50, models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 1})},
		nil,
	)
	d := NewDraft(at(9, 0), 60)
	d = d.ApplyPackageDelta(snap, 100, 2, nil)
	d = d.ApplyEquipmentDelta(snap, 2, 1, nil)

	price := ComputePrice(snap, d)
	require.NotNil(t, price)
	// 2x50 fixed + 1x3/h x 1h; the boards bundled in the package are not
	// additionally charged hourly.
	assert.True(t, price.Equal(decimal.RequireFromString("103.00")), "got %s", price)
}

func TestComputePriceRoundsToCents(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			{ID: 1, Name: "E", TotalQuantity: 5, Status: models.EquipmentStatusAvailable, HourlyRate: decimal.RequireFromString("10.01")},
		},
		nil, nil,
	)
	d := NewDraft(at(9, 0), 90).ApplyEquipmentDelta(snap, 1, 1, nil)

	price := ComputePrice(snap, d)
	require.NotNil(t, price)
	// 10.01 x 1.5h = 15.015 -> 15.02 half-up on cents.
	assert.True(t, price.Equal(decimal.RequireFromString("15.02")), "got %s", price)
}

func TestManualOverrideSurvivesRecompute(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "E1", 5, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	manual := decimal.RequireFromString("99.99")
	d := NewDraft(at(9, 0), 60).ApplyEquipmentDelta(snap, 1, 2, nil).WithManualPrice(manual)

	// Duration and selection changes must not touch the manual value.
	d = d.WithInterval(snap, at(9, 0), 180, nil)
	d = d.ApplyEquipmentDelta(snap, 1, 1, nil)
	price := d.EffectivePrice(snap)
	require.NotNil(t, price)
	assert.True(t, price.Equal(manual))

	// Only the explicit revert returns to derived pricing.
	d = d.WithAutomaticPrice()
	price = d.EffectivePrice(snap)
	require.NotNil(t, price)
	assert.True(t, price.Equal(decimal.RequireFromString("90.00")), "got %s", price)
}

func TestReconstructPriceMode(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{equipment(1, "E1", 5, models.EquipmentStatusAvailable, 10)},
		nil, nil,
	)
	stored := models.Booking{
		ID:           7,
		CustomerName: "Jo",
		StartTime:    at(9, 0),
		EndTime:      at(10, 30),
		Equipment:    []models.BookingEquipmentLine{{EquipmentID: 1, Quantity: 2}},
		Price:        decimal.RequireFromString("30.00"),
	}
	assert.Equal(t, PriceModeAutomatic, ReconstructPriceMode(snap, &stored), "stored price matches the derived one")

	stored.Price = decimal.RequireFromString("25.00")
	assert.Equal(t, PriceModeManual, ReconstructPriceMode(snap, &stored), "a diverging stored price is treated as manual")
}

func TestDraftFromBookingSubtractsPackageImpliedLines(t *testing.T) {
	snap := NewSnapshot(
		[]models.EquipmentItem{
			equipment(1, "SUP Board", 10, models.EquipmentStatusAvailable, 10),
		},
		[]models.Package{pkg(100, "Tour", 50, models.PackageRequirement{EquipmentID: 1, QuantityPerUnit: 2})},
		nil,
	)
	// Persisted lines carry manual + package-implied units (3 = 1 manual + 2 implied).
	stored := models.Booking{
		ID:           7,
		CustomerName: "Jo",
		StartTime:    at(9, 0),
		EndTime:      at(10, 0),
		Equipment:    []models.BookingEquipmentLine{{EquipmentID: 1, Quantity: 3}},
		Packages:     []models.BookingPackageLine{{PackageID: 100, Quantity: 1}},
		Price:        decimal.RequireFromString("60.00"),
	}
	d := DraftFromBooking(snap, &stored)

	assert.Equal(t, 1, d.EquipmentQuantity(1), "edit drafts carry only the manual share")
	assert.Equal(t, 1, d.PackageQuantity(100))
	// 50 fixed + 1x10x1h = 60: matches stored, so the mode is automatic.
	assert.Equal(t, PriceModeAutomatic, d.PriceMode)
}
