package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/events"
	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/pkg/utils"
)

// --- fakes ---

type fakeEquipmentRepo struct {
	items []models.EquipmentItem
	err   error
}

func (f *fakeEquipmentRepo) CreateEquipmentItem(_ repositories.SQLExecutor, item *models.EquipmentItem) (int64, error) {
	item.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *item)
	return item.ID, nil
}
func (f *fakeEquipmentRepo) GetEquipmentItemByID(id int64) (*models.EquipmentItem, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (f *fakeEquipmentRepo) GetEquipmentItems() ([]models.EquipmentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}
func (f *fakeEquipmentRepo) UpdateEquipmentItem(_ repositories.SQLExecutor, _ *models.EquipmentItem) error {
	return nil
}
func (f *fakeEquipmentRepo) DeleteEquipmentItem(_ repositories.SQLExecutor, _ int64) error {
	return nil
}

type fakePackageRepo struct {
	packages []models.Package
}

func (f *fakePackageRepo) CreatePackage(pkg *models.Package) (int64, error) {
	pkg.ID = int64(len(f.packages) + 1)
	f.packages = append(f.packages, *pkg)
	return pkg.ID, nil
}
func (f *fakePackageRepo) GetPackageByID(id int64) (*models.Package, error) {
	for i := range f.packages {
		if f.packages[i].ID == id {
			return &f.packages[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (f *fakePackageRepo) GetPackages() ([]models.Package, error) { return f.packages, nil }
func (f *fakePackageRepo) UpdatePackage(_ *models.Package) error  { return nil }
func (f *fakePackageRepo) DeletePackage(_ int64) error            { return nil }

type fakeBookingRepo struct {
	bookings  map[int64]*models.Booking
	patches   map[int64][]models.BookingPatch
	nextID    int64
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[int64]*models.Booking),
		patches:  make(map[int64][]models.BookingPatch),
	}
}
func (f *fakeBookingRepo) CreateBooking(b *models.Booking) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	b.ID = f.nextID
	stored := *b
	f.bookings[b.ID] = &stored
	return b.ID, nil
}
func (f *fakeBookingRepo) GetBookingByID(id int64) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *b
	return &out, nil
}
func (f *fakeBookingRepo) GetBookings(_ models.BookingFilters) ([]models.Booking, int, error) {
	out := []models.Booking{}
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, len(out), nil
}
func (f *fakeBookingRepo) GetBookingsOverlapping(start, end time.Time) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			out = append(out, *b)
		}
	}
	return out, nil
}
func (f *fakeBookingRepo) UpdateBooking(b *models.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *b
	f.bookings[b.ID] = &stored
	return nil
}
func (f *fakeBookingRepo) PatchBooking(id int64, patch models.BookingPatch) error {
	b, ok := f.bookings[id]
	if !ok {
		return repositories.ErrNotFound
	}
	f.patches[id] = append(f.patches[id], patch)
	if patch.CustomerID != nil {
		b.CustomerID = patch.CustomerID
	}
	if patch.CustomerPhone != nil {
		b.CustomerPhone = patch.CustomerPhone
	}
	if patch.Notes != nil {
		b.Notes = patch.Notes
	}
	return nil
}
func (f *fakeBookingRepo) DeleteBooking(id int64) error {
	if _, ok := f.bookings[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

type fakeCustomerRepo struct {
	customers []models.Customer
}

func (f *fakeCustomerRepo) CreateCustomer(c *models.Customer) (int64, error) {
	c.ID = int64(len(f.customers) + 1)
	f.customers = append(f.customers, *c)
	return c.ID, nil
}
func (f *fakeCustomerRepo) GetCustomerByID(id int64) (*models.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			return &f.customers[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (f *fakeCustomerRepo) GetCustomers() ([]models.Customer, error) { return f.customers, nil }
func (f *fakeCustomerRepo) SearchByPhone(fragment string) ([]models.Customer, error) {
	needle := utils.NormalizePhone(fragment)
	out := []models.Customer{}
	for _, c := range f.customers {
		if needle != "" && strings.Contains(utils.NormalizePhone(c.Phone), needle) {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeCustomerRepo) UpdateCustomer(_ *models.Customer) error { return nil }
func (f *fakeCustomerRepo) DeleteCustomer(_ int64) error            { return nil }

// --- harness ---

type harness struct {
	equipment *fakeEquipmentRepo
	packages  *fakePackageRepo
	bookings  *fakeBookingRepo
	customers *fakeCustomerRepo
	inventory InventoryService
	service   BookingService
	bus       *events.MemoryBus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rate := decimal.RequireFromString("10.00")
	h := &harness{
		equipment: &fakeEquipmentRepo{items: []models.EquipmentItem{
			{ID: 1, Name: "Paddleboard", TotalQuantity: 3, Status: models.EquipmentStatusAvailable, HourlyRate: rate},
			{ID: 2, Name: "Tent", TotalQuantity: 2, Status: models.EquipmentStatusAvailable, HourlyRate: rate},
		}},
		packages: &fakePackageRepo{packages: []models.Package{
			{ID: 1, Name: "Family Picnic", FixedPrice: decimal.RequireFromString("50.00"), Requirements: []models.PackageRequirement{
				{EquipmentID: 2, QuantityPerUnit: 1},
			}},
		}},
		bookings:  newFakeBookingRepo(),
		customers: &fakeCustomerRepo{},
		bus:       events.NewMemoryBus(),
	}
	h.inventory = NewInventoryService(h.equipment, h.packages, h.bookings, h.bus)
	h.service = NewBookingService(h.bookings, h.customers, h.inventory, booking.NewDraftStore(0), h.bus)
	t.Cleanup(h.inventory.Close)
	return h
}

func (h *harness) startDraft(t *testing.T) *DraftView {
	t.Helper()
	view, err := h.service.StartDraft(StartDraftRequest{
		StartTime:       "2025-06-01T10:00:00Z",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	return view
}

// --- tests ---

func TestCommitDraft_Success(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)

	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 2, GestureKey: "g1"})
	require.NoError(t, err)

	b, err := h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim"})
	require.NoError(t, err)
	assert.Equal(t, "Aigerim", b.CustomerName)
	require.Len(t, b.Equipment, 1)
	assert.Equal(t, 2, b.Equipment[0].Quantity)
	// 2 units x 10.00/h x 1h
	assert.True(t, b.Price.Equal(decimal.RequireFromString("20.00")), "got %s", b.Price)

	// The draft is gone once the commit lands.
	_, err = h.service.GetDraft(view.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestCommitDraft_PersistsMergedPackageEquipment(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)

	_, err := h.service.ApplyPackageDelta(view.ID, PackageDeltaRequest{PackageID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)
	_, err = h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 2, Delta: 1, GestureKey: "g2"})
	require.NoError(t, err)

	b, err := h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim"})
	require.NoError(t, err)

	// Stored equipment lines carry manual + package-implied units.
	require.Len(t, b.Equipment, 1)
	assert.Equal(t, int64(2), b.Equipment[0].EquipmentID)
	assert.Equal(t, 2, b.Equipment[0].Quantity)
	require.Len(t, b.Packages, 1)
	// 1 x 50.00 package + 1 manual tent x 10.00/h x 1h
	assert.True(t, b.Price.Equal(decimal.RequireFromString("60.00")), "got %s", b.Price)
}

func TestCommitDraft_EmptySelectionRejected(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)

	_, err := h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim"})
	var validation *booking.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "selection", validation.Field)

	// Failure preserves the draft.
	_, err = h.service.GetDraft(view.ID)
	assert.NoError(t, err)
}

func TestCommitDraft_CustomerDecisionPauseAndResume(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)
	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)

	phone := "+7 701 234 56 78"
	req := CommitDraftRequest{CustomerName: "Aigerim", CustomerPhone: &phone}

	// Unknown phone with no decision pauses the commit; nothing is persisted.
	_, err = h.service.CommitDraft(view.ID, req)
	var decision *booking.CustomerDecisionRequiredError
	require.ErrorAs(t, err, &decision)
	assert.Equal(t, "Aigerim", decision.CustomerName)
	assert.Empty(t, h.bookings.bookings)
	_, err = h.service.GetDraft(view.ID)
	require.NoError(t, err)

	// Answering yes creates the registry entry and finishes the commit.
	yes := true
	req.CreateCustomer = &yes
	b, err := h.service.CommitDraft(view.ID, req)
	require.NoError(t, err)
	require.Len(t, h.customers.customers, 1)
	require.NotNil(t, b.CustomerID)
	assert.Equal(t, h.customers.customers[0].ID, *b.CustomerID)
	require.NotNil(t, b.CustomerPhone)
	assert.Equal(t, phone, *b.CustomerPhone)
}

func TestCommitDraft_KnownPhoneSkipsDecision(t *testing.T) {
	h := newHarness(t)
	h.customers.customers = []models.Customer{{ID: 9, Name: "Aigerim", Phone: "+7 (701) 234-56-78"}}
	view := h.startDraft(t)
	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)

	phone := "7012345678"
	b, err := h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim", CustomerPhone: &phone})
	require.NoError(t, err)
	require.NotNil(t, b.CustomerID)
	assert.Equal(t, int64(9), *b.CustomerID)
	assert.Len(t, h.customers.customers, 1)
}

func TestCommitDraft_DecisionNoProceedsWithoutCustomer(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)
	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)

	phone := "7012345678"
	no := false
	b, err := h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim", CustomerPhone: &phone, CreateCustomer: &no})
	require.NoError(t, err)
	assert.Nil(t, b.CustomerID)
	assert.Empty(t, h.customers.customers)
}

func TestCommitDraft_SchemaMismatchTranslated(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)
	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)

	h.bookings.createErr = fmt.Errorf("%w: column does not exist (column: paid)", repositories.ErrSchemaMismatch)

	_, err = h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim"})
	var schema *booking.SchemaMismatchError
	require.ErrorAs(t, err, &schema)
	assert.Equal(t, "paid", schema.Column)

	// Draft survives the failed commit.
	_, err = h.service.GetDraft(view.ID)
	assert.NoError(t, err)
}

func TestCommitDraft_TransactionalCheckFailurePreservesDraft(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)
	_, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "g1"})
	require.NoError(t, err)

	h.bookings.createErr = &booking.InsufficientAvailabilityError{EquipmentID: 1, Name: "Paddleboard", Available: 0, Requested: 1}

	_, err = h.service.CommitDraft(view.ID, CommitDraftRequest{CustomerName: "Aigerim"})
	var insufficient *booking.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	_, err = h.service.GetDraft(view.ID)
	assert.NoError(t, err)
}

func TestApplyEquipmentDelta_GestureDeduplication(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)

	// The same gesture key firing twice inside the guard window applies once.
	v1, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "tap-1"})
	require.NoError(t, err)
	v2, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "tap-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Equipment[0].Quantity)
	assert.Equal(t, 1, v2.Equipment[0].Quantity)

	// Distinct keys compose from the stored state.
	v3, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 1, GestureKey: "tap-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, v3.Equipment[0].Quantity)
}

func TestDraftView_AvailabilityNetsOutSelection(t *testing.T) {
	h := newHarness(t)
	view := h.startDraft(t)

	// Selecting 2 of the 3 paddleboards leaves 1 reported for the next line.
	view, err := h.service.ApplyEquipmentDelta(view.ID, EquipmentDeltaRequest{EquipmentID: 1, Delta: 2, GestureKey: "tap-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, availabilityFor(t, view, 1).Remaining)
	assert.Equal(t, 2, availabilityFor(t, view, 2).Remaining, "unselected items report full capacity")

	// Package-implied consumption counts too: the picnic package takes a tent.
	view, err = h.service.ApplyPackageDelta(view.ID, PackageDeltaRequest{PackageID: 1, Delta: 1, GestureKey: "tap-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, availabilityFor(t, view, 2).Remaining)
}

func availabilityFor(t *testing.T, view *DraftView, equipmentID int64) EquipmentAvailability {
	t.Helper()
	for _, row := range view.Availability {
		if row.EquipmentID == equipmentID {
			return row
		}
	}
	t.Fatalf("no availability row for equipment %d", equipmentID)
	return EquipmentAvailability{}
}

func TestStartDraft_EditModeExcludesOwnBooking(t *testing.T) {
	h := newHarness(t)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	h.bookings.nextID = 1
	h.bookings.bookings[1] = &models.Booking{
		ID:           1,
		CustomerName: "Aigerim",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Price:        decimal.RequireFromString("30.00"),
		Equipment:    []models.BookingEquipmentLine{{EquipmentID: 1, Quantity: 3}},
	}

	bookingID := int64(1)
	view, err := h.service.StartDraft(StartDraftRequest{BookingID: &bookingID})
	require.NoError(t, err)
	require.NotNil(t, view.BookingID)

	// All 3 units belong to the edited booking itself, so they stay selected;
	// with every unit claimed by this draft, the reported headroom for a
	// further increment is 0.
	require.Len(t, view.Equipment, 1)
	assert.Equal(t, 3, view.Equipment[0].Quantity)
	assert.Equal(t, 0, availabilityFor(t, view, 1).Remaining)
}

func TestPatchBooking_PaidStampsTimestamp(t *testing.T) {
	h := newHarness(t)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	h.bookings.nextID = 1
	h.bookings.bookings[1] = &models.Booking{ID: 1, CustomerName: "Aigerim", StartTime: start, EndTime: start.Add(time.Hour)}

	paid := true
	_, err := h.service.PatchBooking(1, models.BookingPatch{Paid: &paid})
	require.NoError(t, err)
	require.Len(t, h.bookings.patches[1], 1)
	assert.NotNil(t, h.bookings.patches[1][0].PaidAt)
}
