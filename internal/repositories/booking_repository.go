package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/models"
)

// BookingRepository defines the interface for booking-related database operations.
// Create and full updates re-verify equipment availability inside their own
// transaction so that two commits racing for the same units cannot both land.
type BookingRepository interface {
	CreateBooking(b *models.Booking) (int64, error)
	GetBookingByID(id int64) (*models.Booking, error)
	GetBookings(filters models.BookingFilters) ([]models.Booking, int, error)
	GetBookingsOverlapping(start, end time.Time) ([]models.Booking, error)
	UpdateBooking(b *models.Booking) error
	PatchBooking(id int64, patch models.BookingPatch) error
	DeleteBooking(id int64) error
}

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const selectBookingFields = `
	b.id, b.customer_id, b.customer_name, b.customer_phone, b.start_time, b.end_time,
	b.price, b.paid, b.paid_at, b.invoiced, b.invoice_number, b.notes, b.created_at, b.updated_at
`

func scanBookingFields(s scanner, b *models.Booking, extra ...interface{}) error {
	dest := []interface{}{
		&b.ID, &b.CustomerID, &b.CustomerName, &b.CustomerPhone, &b.StartTime, &b.EndTime,
		&b.Price, &b.Paid, &b.PaidAt, &b.Invoiced, &b.InvoiceNumber, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	}
	dest = append(dest, extra...)
	return s.Scan(dest...)
}

func (r *bookingRepository) CreateBooking(b *models.Booking) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: beginning booking create: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := verifyAvailabilityTx(tx, b, nil); err != nil {
		return 0, err
	}

	currentTime := time.Now()
	b.CreatedAt = currentTime
	b.UpdatedAt = currentTime

	err = tx.QueryRow(
		`INSERT INTO bookings
		   (customer_id, customer_name, customer_phone, start_time, end_time, price,
		    paid, paid_at, invoiced, invoice_number, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		b.CustomerID, b.CustomerName, b.CustomerPhone, b.StartTime, b.EndTime, b.Price,
		b.Paid, b.PaidAt, b.Invoiced, b.InvoiceNumber, b.Notes, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating booking")
	}

	if err := insertBookingLines(tx, b); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing booking create: %v", ErrDatabaseError, err)
	}
	return b.ID, nil
}

func (r *bookingRepository) GetBookingByID(id int64) (*models.Booking, error) {
	b := &models.Booking{}
	err := scanBookingFields(r.db.QueryRow(
		`SELECT `+selectBookingFields+` FROM bookings b WHERE b.id = $1`, id,
	), b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapPQError(err, fmt.Sprintf("getting booking by ID %d", id))
	}

	bookings := []models.Booking{*b}
	if err := r.loadBookingLines(bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

func (r *bookingRepository) GetBookings(filters models.BookingFilters) ([]models.Booking, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + selectBookingFields + `, COUNT(*) OVER() AS total_count FROM bookings b`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("b.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("b.end_time > $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("b.start_time < $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}
	if filters.Paid != nil {
		conditions = append(conditions, fmt.Sprintf("b.paid = $%d", argCount))
		args = append(args, *filters.Paid)
		argCount++
	}
	if filters.Invoiced != nil {
		conditions = append(conditions, fmt.Sprintf("b.invoiced = $%d", argCount))
		args = append(args, *filters.Invoiced)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY b.start_time DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 1 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapPQError(err, "querying bookings")
	}
	defer rows.Close()

	bookings := []models.Booking{}
	totalCount := 0
	for rows.Next() {
		var b models.Booking
		if err := scanBookingFields(rows, &b, &totalCount); err != nil {
			return nil, 0, wrapPQError(err, "scanning booking")
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating booking rows: %v", ErrDatabaseError, err)
	}

	if err := r.loadBookingLines(bookings); err != nil {
		return nil, 0, err
	}
	return bookings, totalCount, nil
}

// GetBookingsOverlapping returns all bookings intersecting the half-open
// window [start, end), with their equipment and package lines loaded. The
// availability snapshot is built from this set.
func (r *bookingRepository) GetBookingsOverlapping(start, end time.Time) ([]models.Booking, error) {
	rows, err := r.db.Query(
		`SELECT `+selectBookingFields+` FROM bookings b
		 WHERE b.start_time < $2 AND b.end_time > $1
		 ORDER BY b.start_time ASC`,
		start, end,
	)
	if err != nil {
		return nil, wrapPQError(err, "querying overlapping bookings")
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := scanBookingFields(rows, &b); err != nil {
			return nil, wrapPQError(err, "scanning booking")
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating booking rows: %v", ErrDatabaseError, err)
	}

	if err := r.loadBookingLines(bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateBooking(b *models.Booking) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning booking update: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	excludeID := b.ID
	if err := verifyAvailabilityTx(tx, b, &excludeID); err != nil {
		return err
	}

	b.UpdatedAt = time.Now()
	err = tx.QueryRow(
		`UPDATE bookings SET
		   customer_id = $1, customer_name = $2, customer_phone = $3, start_time = $4,
		   end_time = $5, price = $6, notes = $7, updated_at = $8
		 WHERE id = $9 RETURNING updated_at`,
		b.CustomerID, b.CustomerName, b.CustomerPhone, b.StartTime,
		b.EndTime, b.Price, b.Notes, b.UpdatedAt, b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapPQError(err, fmt.Sprintf("updating booking ID %d", b.ID))
	}

	if _, err := tx.Exec(`DELETE FROM booking_equipment WHERE booking_id = $1`, b.ID); err != nil {
		return wrapPQError(err, "clearing booking equipment lines")
	}
	if _, err := tx.Exec(`DELETE FROM booking_packages WHERE booking_id = $1`, b.ID); err != nil {
		return wrapPQError(err, "clearing booking package lines")
	}
	if err := insertBookingLines(tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing booking update: %v", ErrDatabaseError, err)
	}
	return nil
}

// PatchBooking updates only the fields set on the patch. It never touches the
// time window or selection, so no availability check is needed.
func (r *bookingRepository) PatchBooking(id int64, patch models.BookingPatch) error {
	var sets []string
	var args []interface{}
	argCount := 1

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if patch.CustomerID != nil {
		addSet("customer_id", *patch.CustomerID)
	}
	if patch.CustomerPhone != nil {
		addSet("customer_phone", *patch.CustomerPhone)
	}
	if patch.Paid != nil {
		addSet("paid", *patch.Paid)
		addSet("paid_at", patch.PaidAt)
	}
	if patch.Invoiced != nil {
		addSet("invoiced", *patch.Invoiced)
		addSet("invoice_number", patch.InvoiceNumber)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	addSet("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE bookings SET %s WHERE id = $%d", strings.Join(sets, ", "), argCount)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("patching booking ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepository) DeleteBooking(id int64) error {
	result, err := r.db.Exec(`DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting booking ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// verifyAvailabilityTx locks the equipment rows the booking touches and
// re-checks remaining capacity against committed overlapping bookings. Row
// locks serialize concurrent commits over the same items, so the quantities
// read here cannot change before this transaction commits.
func verifyAvailabilityTx(executor SQLExecutor, b *models.Booking, excludeBookingID *int64) error {
	if len(b.Equipment) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(b.Equipment))
	for _, line := range b.Equipment {
		ids = append(ids, line.EquipmentID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := executor.Query(
		`SELECT id, name, total_quantity, status FROM equipment_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		pq.Array(ids),
	)
	if err != nil {
		return wrapPQError(err, "locking equipment rows")
	}
	defer rows.Close()

	type lockedItem struct {
		name     string
		total    int
		bookable bool
	}
	items := make(map[int64]lockedItem, len(ids))
	for rows.Next() {
		var id int64
		var name string
		var total int
		var status string
		if err := rows.Scan(&id, &name, &total, &status); err != nil {
			return wrapPQError(err, "scanning locked equipment row")
		}
		items[id] = lockedItem{
			name:     name,
			total:    total,
			bookable: models.EquipmentStatus(status) == models.EquipmentStatusAvailable,
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating locked equipment rows: %v", ErrDatabaseError, err)
	}

	booked, err := bookedQuantitiesTx(executor, ids, b.StartTime, b.EndTime, excludeBookingID)
	if err != nil {
		return err
	}

	for _, line := range b.Equipment {
		item, ok := items[line.EquipmentID]
		if !ok {
			return ErrNotFound
		}
		if !item.bookable {
			return &booking.UnavailableEquipmentError{EquipmentID: line.EquipmentID, Name: item.name}
		}
		remaining := item.total - booked[line.EquipmentID]
		if remaining < 0 {
			remaining = 0
		}
		if line.Quantity > remaining {
			return &booking.InsufficientAvailabilityError{
				EquipmentID: line.EquipmentID,
				Name:        item.name,
				Available:   remaining,
				Requested:   line.Quantity,
			}
		}
	}
	return nil
}

func bookedQuantitiesTx(executor SQLExecutor, equipmentIDs []int64, start, end time.Time, excludeBookingID *int64) (map[int64]int, error) {
	query := `SELECT be.equipment_id, COALESCE(SUM(be.quantity), 0)
	          FROM booking_equipment be
	          JOIN bookings b ON be.booking_id = b.id
	          WHERE be.equipment_id = ANY($1) AND b.start_time < $3 AND b.end_time > $2`
	args := []interface{}{pq.Array(equipmentIDs), start, end}
	if excludeBookingID != nil {
		query += " AND b.id != $4"
		args = append(args, *excludeBookingID)
	}
	query += " GROUP BY be.equipment_id"

	rows, err := executor.Query(query, args...)
	if err != nil {
		return nil, wrapPQError(err, "summing booked quantities")
	}
	defer rows.Close()

	booked := make(map[int64]int, len(equipmentIDs))
	for rows.Next() {
		var equipmentID int64
		var quantity int
		if err := rows.Scan(&equipmentID, &quantity); err != nil {
			return nil, wrapPQError(err, "scanning booked quantity")
		}
		booked[equipmentID] = quantity
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating booked quantity rows: %v", ErrDatabaseError, err)
	}
	return booked, nil
}

func insertBookingLines(executor SQLExecutor, b *models.Booking) error {
	for _, line := range b.Equipment {
		_, err := executor.Exec(
			`INSERT INTO booking_equipment (booking_id, equipment_id, quantity) VALUES ($1, $2, $3)`,
			b.ID, line.EquipmentID, line.Quantity,
		)
		if err != nil {
			return wrapPQError(err, "inserting booking equipment line")
		}
	}
	for _, line := range b.Packages {
		_, err := executor.Exec(
			`INSERT INTO booking_packages (booking_id, package_id, quantity) VALUES ($1, $2, $3)`,
			b.ID, line.PackageID, line.Quantity,
		)
		if err != nil {
			return wrapPQError(err, "inserting booking package line")
		}
	}
	return nil
}

// loadBookingLines populates Equipment and Packages for the given bookings
// using two batch queries instead of one pair per booking.
func (r *bookingRepository) loadBookingLines(bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(bookings))
	index := make(map[int64]*models.Booking, len(bookings))
	for i := range bookings {
		ids = append(ids, bookings[i].ID)
		index[bookings[i].ID] = &bookings[i]
	}

	rows, err := r.db.Query(
		`SELECT booking_id, equipment_id, quantity FROM booking_equipment
		 WHERE booking_id = ANY($1) ORDER BY booking_id, equipment_id`,
		pq.Array(ids),
	)
	if err != nil {
		return wrapPQError(err, "querying booking equipment lines")
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID int64
		var line models.BookingEquipmentLine
		if err := rows.Scan(&bookingID, &line.EquipmentID, &line.Quantity); err != nil {
			return wrapPQError(err, "scanning booking equipment line")
		}
		if b := index[bookingID]; b != nil {
			b.Equipment = append(b.Equipment, line)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating booking equipment rows: %v", ErrDatabaseError, err)
	}

	pkgRows, err := r.db.Query(
		`SELECT booking_id, package_id, quantity FROM booking_packages
		 WHERE booking_id = ANY($1) ORDER BY booking_id, package_id`,
		pq.Array(ids),
	)
	if err != nil {
		return wrapPQError(err, "querying booking package lines")
	}
	defer pkgRows.Close()

	for pkgRows.Next() {
		var bookingID int64
		var line models.BookingPackageLine
		if err := pkgRows.Scan(&bookingID, &line.PackageID, &line.Quantity); err != nil {
			return wrapPQError(err, "scanning booking package line")
		}
		if b := index[bookingID]; b != nil {
			b.Packages = append(b.Packages, line)
		}
	}
	if err = pkgRows.Err(); err != nil {
		return fmt.Errorf("%w: iterating booking package rows: %v", ErrDatabaseError, err)
	}
	return nil
}
