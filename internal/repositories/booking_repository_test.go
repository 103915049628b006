package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/models"
)

func newBookingFixture() *models.Booking {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &models.Booking{
		CustomerName: "Aigerim",
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		Price:        decimal.RequireFromString("40.00"),
		Equipment: []models.BookingEquipmentLine{
			{EquipmentID: 7, Quantity: 2},
		},
		Packages: []models.BookingPackageLine{
			{PackageID: 3, Quantity: 1},
		},
	}
}

func expectAvailabilityCheck(mock sqlmock.Sqlmock, totalQuantity, alreadyBooked int) {
	mock.ExpectQuery("SELECT id, name, total_quantity, status FROM equipment_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_quantity", "status"}).
			AddRow(7, "Paddleboard", totalQuantity, "available"))
	bookedRows := sqlmock.NewRows([]string{"equipment_id", "sum"})
	if alreadyBooked > 0 {
		bookedRows.AddRow(7, alreadyBooked)
	}
	mock.ExpectQuery("SELECT be.equipment_id, COALESCE").
		WillReturnRows(bookedRows)
}

func TestBookingRepository_CreateBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		b := newBookingFixture()

		mock.ExpectBegin()
		expectAvailabilityCheck(mock, 3, 1)
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
		mock.ExpectExec("INSERT INTO booking_equipment").
			WithArgs(int64(42), int64(7), 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO booking_packages").
			WithArgs(int64(42), int64(3), 1).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		id, err := repo.CreateBooking(b)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientAvailability", func(t *testing.T) {
		b := newBookingFixture()

		mock.ExpectBegin()
		expectAvailabilityCheck(mock, 3, 2)
		mock.ExpectRollback()

		_, err := repo.CreateBooking(b)
		var insufficient *booking.InsufficientAvailabilityError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(7), insufficient.EquipmentID)
		assert.Equal(t, 1, insufficient.Available)
		assert.Equal(t, 2, insufficient.Requested)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnbookableStatus", func(t *testing.T) {
		b := newBookingFixture()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, name, total_quantity, status FROM equipment_items").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_quantity", "status"}).
				AddRow(7, "Paddleboard", 3, "maintenance"))
		mock.ExpectQuery("SELECT be.equipment_id, COALESCE").
			WillReturnRows(sqlmock.NewRows([]string{"equipment_id", "sum"}))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(b)
		var unavailable *booking.UnavailableEquipmentError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "Paddleboard", unavailable.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_UpdateBooking_ExcludesOwnLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(db)
	b := newBookingFixture()
	b.ID = 42

	mock.ExpectBegin()
	// The booked-quantity sum must carry the exclusion clause so the
	// booking's own previous lines do not count against it.
	mock.ExpectQuery("SELECT id, name, total_quantity, status FROM equipment_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_quantity", "status"}).
			AddRow(7, "Paddleboard", 2, "available"))
	mock.ExpectQuery(`(?s)SELECT be\.equipment_id, COALESCE.+b\.id != `).
		WillReturnRows(sqlmock.NewRows([]string{"equipment_id", "sum"}))
	mock.ExpectQuery("UPDATE bookings SET").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM booking_equipment").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_packages").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_equipment").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO booking_packages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.UpdateBooking(b)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetBookingByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM bookings b WHERE b.id = ").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "customer_id", "customer_name", "customer_phone", "start_time", "end_time",
				"price", "paid", "paid_at", "invoiced", "invoice_number", "notes", "created_at", "updated_at",
			}).AddRow(42, nil, "Aigerim", nil, now, now.Add(time.Hour), "40.00", false, nil, false, nil, nil, now, now))
		mock.ExpectQuery("SELECT booking_id, equipment_id, quantity FROM booking_equipment").
			WillReturnRows(sqlmock.NewRows([]string{"booking_id", "equipment_id", "quantity"}).
				AddRow(42, 7, 2))
		mock.ExpectQuery("SELECT booking_id, package_id, quantity FROM booking_packages").
			WillReturnRows(sqlmock.NewRows([]string{"booking_id", "package_id", "quantity"}))

		b, err := repo.GetBookingByID(42)
		require.NoError(t, err)
		assert.Equal(t, "Aigerim", b.CustomerName)
		require.Len(t, b.Equipment, 1)
		assert.Equal(t, 2, b.Equipment[0].Quantity)
		assert.True(t, b.Price.Equal(decimal.RequireFromString("40.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings b WHERE b.id = ").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetBookingByID(99)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_PatchBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(db)

	t.Run("PaidTogglesTimestamp", func(t *testing.T) {
		paid := true
		paidAt := time.Now()
		mock.ExpectExec("UPDATE bookings SET paid = (.+), paid_at = (.+), updated_at = ").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.PatchBooking(42, models.BookingPatch{Paid: &paid, PaidAt: &paidAt})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyPatchIsNoOp", func(t *testing.T) {
		err := repo.PatchBooking(42, models.BookingPatch{})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		notes := "moved to Saturday"
		mock.ExpectExec("UPDATE bookings SET notes = ").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.PatchBooking(99, models.BookingPatch{Notes: &notes})
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
