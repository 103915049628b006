package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/events"
	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/pkg/utils"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrBookingTimeParse = errors.New("invalid booking time")
)

// --- Draft DTOs ---

type StartDraftRequest struct {
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	// BookingID switches the draft to edit mode: the booking's selection is
	// loaded, its price mode reconstructed, and its own lines excluded from
	// capacity checks.
	BookingID *int64 `json:"booking_id,omitempty"`
}

type EquipmentDeltaRequest struct {
	EquipmentID int64 `json:"equipment_id" binding:"required"`
	Delta       int   `json:"delta" binding:"required"`
	// GestureKey identifies the physical user gesture. Repeats of the same
	// key inside the guard window are dropped so one tap cannot double-apply;
	// distinct keys compose normally.
	GestureKey string `json:"gesture_key"`
}

type PackageDeltaRequest struct {
	PackageID  int64  `json:"package_id" binding:"required"`
	Delta      int    `json:"delta" binding:"required"`
	GestureKey string `json:"gesture_key"`
}

type SetIntervalRequest struct {
	StartTime       string `json:"start_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}

type SetManualPriceRequest struct {
	Price string `json:"price" binding:"required"`
}

type CommitDraftRequest struct {
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	// CreateCustomer resumes a commit paused on CustomerDecisionRequiredError:
	// nil means no decision was made yet, true creates the registry entry,
	// false proceeds without one.
	CreateCustomer *bool `json:"create_customer,omitempty"`
}

// DraftView is the rendered state of a draft session handed back after every
// transition: the selection, the effective price, and per-item availability
// at the draft's window.
type DraftView struct {
	ID              uuid.UUID               `json:"id"`
	StartTime       time.Time               `json:"start_time"`
	DurationMinutes int                     `json:"duration_minutes"`
	Equipment       []booking.SelectedLine  `json:"selected_equipment"`
	Packages        []booking.SelectedLine  `json:"selected_packages"`
	PriceMode       booking.PriceMode       `json:"price_mode"`
	Price           *decimal.Decimal        `json:"price,omitempty"`
	BookingID       *int64                  `json:"booking_id,omitempty"`
	Availability    []EquipmentAvailability `json:"availability"`
}

// --- BookingService Interface ---

type BookingService interface {
	StartDraft(req StartDraftRequest) (*DraftView, error)
	GetDraft(id uuid.UUID) (*DraftView, error)
	ApplyEquipmentDelta(id uuid.UUID, req EquipmentDeltaRequest) (*DraftView, error)
	ApplyPackageDelta(id uuid.UUID, req PackageDeltaRequest) (*DraftView, error)
	SetDraftInterval(id uuid.UUID, req SetIntervalRequest) (*DraftView, error)
	SetManualPrice(id uuid.UUID, req SetManualPriceRequest) (*DraftView, error)
	RevertToAutomaticPrice(id uuid.UUID) (*DraftView, error)
	DiscardDraft(id uuid.UUID)
	CommitDraft(id uuid.UUID, req CommitDraftRequest) (*models.Booking, error)

	GetBookingByID(bookingID int64) (*models.Booking, error)
	GetBookings(filters models.BookingFilters) ([]models.Booking, int, error)
	PatchBooking(bookingID int64, patch models.BookingPatch) (*models.Booking, error)
	DeleteBooking(bookingID int64) error
}

type bookingService struct {
	bookingRepo  repositories.BookingRepository
	customerRepo repositories.CustomerRepository
	inventory    InventoryService
	drafts       *booking.DraftStore
	sessions     *sessionIndex
	bus          events.Bus
}

// NewBookingService creates a new instance of BookingService.
func NewBookingService(
	br repositories.BookingRepository,
	cr repositories.CustomerRepository,
	inv InventoryService,
	drafts *booking.DraftStore,
	bus events.Bus,
) BookingService {
	return &bookingService{
		bookingRepo:  br,
		customerRepo: cr,
		inventory:    inv,
		drafts:       drafts,
		sessions:     newSessionIndex(),
		bus:          bus,
	}
}

func (s *bookingService) StartDraft(req StartDraftRequest) (*DraftView, error) {
	if req.BookingID != nil {
		return s.startEditDraft(*req.BookingID)
	}

	start := time.Now().Truncate(time.Minute)
	if req.StartTime != "" {
		parsed, err := parseDateTime(req.StartTime, ErrBookingTimeParse)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	d := booking.NewDraft(start, req.DurationMinutes)
	id := s.drafts.Put(d)
	s.sessions.put(id, nil)
	return s.render(id, d, nil)
}

// startEditDraft seeds a draft from a persisted booking. The stored equipment
// lines carry merged package-implied units; DraftFromBooking subtracts those
// back out and reconstructs the price mode.
func (s *bookingService) startEditDraft(bookingID int64) (*DraftView, error) {
	b, err := s.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("loading booking for edit: %w", err)
	}

	ivl := booking.Interval{Start: b.StartTime, End: b.EndTime}
	snap, err := s.inventory.SnapshotFor(ivl)
	if err != nil {
		return nil, err
	}

	d := booking.DraftFromBooking(snap, b)
	id := s.drafts.Put(d)
	s.sessions.put(id, &bookingID)
	return s.render(id, d, &bookingID)
}

func (s *bookingService) GetDraft(id uuid.UUID) (*DraftView, error) {
	d, err := s.drafts.Get(id)
	if err != nil {
		return nil, ErrDraftNotFound
	}
	return s.render(id, d, s.sessions.bookingID(id))
}

func (s *bookingService) ApplyEquipmentDelta(id uuid.UUID, req EquipmentDeltaRequest) (*DraftView, error) {
	return s.applyDelta(id, req.GestureKey, func(snap *booking.Snapshot, d booking.Draft, exclude *int64) booking.Draft {
		return d.ApplyEquipmentDelta(snap, req.EquipmentID, req.Delta, exclude)
	})
}

func (s *bookingService) ApplyPackageDelta(id uuid.UUID, req PackageDeltaRequest) (*DraftView, error) {
	return s.applyDelta(id, req.GestureKey, func(snap *booking.Snapshot, d booking.Draft, exclude *int64) booking.Draft {
		return d.ApplyPackageDelta(snap, req.PackageID, req.Delta, exclude)
	})
}

func (s *bookingService) SetDraftInterval(id uuid.UUID, req SetIntervalRequest) (*DraftView, error) {
	start, err := parseDateTime(req.StartTime, ErrBookingTimeParse)
	if err != nil {
		return nil, err
	}
	// Snapshot the window the draft is moving to, not the one it leaves.
	ivl := booking.NewInterval(start, req.DurationMinutes)
	snap, err := s.inventory.SnapshotFor(ivl)
	if err != nil {
		return nil, err
	}
	exclude := s.sessions.bookingID(id)
	d, _, err := s.drafts.Apply(id, "", func(d booking.Draft) booking.Draft {
		return d.WithInterval(snap, start, req.DurationMinutes, exclude)
	})
	if err != nil {
		return nil, ErrDraftNotFound
	}
	return s.render(id, d, exclude)
}

func (s *bookingService) SetManualPrice(id uuid.UUID, req SetManualPriceRequest) (*DraftView, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q is not a number", ErrBookingTimeParse, req.Price)
	}
	d, _, err := s.drafts.Apply(id, "", func(d booking.Draft) booking.Draft {
		return d.WithManualPrice(price)
	})
	if err != nil {
		return nil, ErrDraftNotFound
	}
	return s.render(id, d, s.sessions.bookingID(id))
}

func (s *bookingService) RevertToAutomaticPrice(id uuid.UUID) (*DraftView, error) {
	d, _, err := s.drafts.Apply(id, "", func(d booking.Draft) booking.Draft {
		return d.WithAutomaticPrice()
	})
	if err != nil {
		return nil, ErrDraftNotFound
	}
	return s.render(id, d, s.sessions.bookingID(id))
}

// DiscardDraft drops the session. Nothing was persisted, so there is no
// write to undo.
func (s *bookingService) DiscardDraft(id uuid.UUID) {
	s.drafts.Delete(id)
	s.sessions.remove(id)
}

// CommitDraft turns a draft into a persisted booking:
//
//  1. validate the draft against a fresh snapshot (status gate, capacity
//     over the merged equipment consumption),
//  2. reconcile the customer phone against the registry, pausing for a
//     decision when the phone is unknown,
//  3. persist through the transactional create, which re-verifies
//     availability server-side,
//  4. patch the auxiliary fields the create does not accept,
//  5. drop the draft and announce the change.
//
// Every failure before step 5 leaves the draft in place so no work is lost.
func (s *bookingService) CommitDraft(id uuid.UUID, req CommitDraftRequest) (*models.Booking, error) {
	d, err := s.drafts.Get(id)
	if err != nil {
		return nil, ErrDraftNotFound
	}
	exclude := s.sessions.bookingID(id)

	ivl := d.Interval()
	snap, err := s.inventory.FreshSnapshot(ivl)
	if err != nil {
		return nil, err
	}
	if err := booking.ValidateForCommit(snap, d, exclude); err != nil {
		return nil, err
	}
	if req.CustomerName == "" {
		return nil, &booking.ValidationError{Field: "customer_name", Reason: "customer name is required"}
	}

	customerID, err := s.reconcileCustomer(req)
	if err != nil {
		return nil, err
	}

	price := d.EffectivePrice(snap)
	if price == nil {
		return nil, &booking.ValidationError{Field: "selection", Reason: "select at least one equipment item or package"}
	}

	b := &models.Booking{
		ID:           valueOrZero(exclude),
		CustomerName: req.CustomerName,
		StartTime:    ivl.Start,
		EndTime:      ivl.End,
		Price:        *price,
		Equipment:    booking.MergedEquipment(snap, d),
	}
	for _, line := range d.Packages {
		b.Packages = append(b.Packages, models.BookingPackageLine{PackageID: line.ID, Quantity: line.Quantity})
	}

	if exclude != nil {
		err = s.bookingRepo.UpdateBooking(b)
	} else {
		_, err = s.bookingRepo.CreateBooking(b)
	}
	if err != nil {
		return nil, translatePersistError(err)
	}

	// Auxiliary fields ride a follow-up patch keyed by the returned id.
	patch := models.BookingPatch{Notes: req.Notes}
	if req.CustomerPhone != nil {
		patch.CustomerPhone = utils.NewNullString(*req.CustomerPhone)
	}
	if customerID != nil {
		patch.CustomerID = customerID
	}
	if err := s.bookingRepo.PatchBooking(b.ID, patch); err != nil {
		utils.LogError(err, "booking created but auxiliary patch failed")
	}

	s.DiscardDraft(id)
	s.inventory.Invalidate()
	s.publishChanged(b.ID)

	return s.bookingRepo.GetBookingByID(b.ID)
}

// reconcileCustomer resolves the phone number against the registry. An
// unknown phone with no decision attached pauses the commit; a decision in
// either direction lets it proceed.
func (s *bookingService) reconcileCustomer(req CommitDraftRequest) (*int64, error) {
	if req.CustomerPhone == nil || utils.NormalizePhone(*req.CustomerPhone) == "" {
		return nil, nil
	}

	matches, err := s.customerRepo.SearchByPhone(*req.CustomerPhone)
	if err != nil {
		return nil, fmt.Errorf("searching customer registry: %w", err)
	}
	if len(matches) > 0 {
		return &matches[0].ID, nil
	}

	if req.CreateCustomer == nil {
		return nil, &booking.CustomerDecisionRequiredError{
			CustomerName:  req.CustomerName,
			CustomerPhone: *req.CustomerPhone,
		}
	}
	if !*req.CreateCustomer {
		return nil, nil
	}

	customer := &models.Customer{Name: req.CustomerName, Phone: *req.CustomerPhone}
	customerID, err := s.customerRepo.CreateCustomer(customer)
	if err != nil {
		return nil, fmt.Errorf("creating customer during commit: %w", err)
	}
	return &customerID, nil
}

func (s *bookingService) GetBookingByID(bookingID int64) (*models.Booking, error) {
	b, err := s.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", err)
	}
	return b, nil
}

func (s *bookingService) GetBookings(filters models.BookingFilters) ([]models.Booking, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	bookings, totalCount, err := s.bookingRepo.GetBookings(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, totalCount, nil
}

func (s *bookingService) PatchBooking(bookingID int64, patch models.BookingPatch) (*models.Booking, error) {
	if patch.Paid != nil && *patch.Paid && patch.PaidAt == nil {
		now := time.Now()
		patch.PaidAt = &now
	}
	if err := s.bookingRepo.PatchBooking(bookingID, patch); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, translatePersistError(err)
	}
	s.publishChanged(bookingID)
	return s.bookingRepo.GetBookingByID(bookingID)
}

func (s *bookingService) DeleteBooking(bookingID int64) error {
	if err := s.bookingRepo.DeleteBooking(bookingID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	s.inventory.Invalidate()
	s.publishChanged(bookingID)
	return nil
}

// applyDelta runs one draft transition against the snapshot at the draft's
// current window. The transition itself never suspends: it runs purely on
// the already-loaded snapshot under the store lock.
func (s *bookingService) applyDelta(id uuid.UUID, gestureKey string, fn func(*booking.Snapshot, booking.Draft, *int64) booking.Draft) (*DraftView, error) {
	d, err := s.drafts.Get(id)
	if err != nil {
		return nil, ErrDraftNotFound
	}
	snap, err := s.inventory.SnapshotFor(d.Interval())
	if err != nil {
		return nil, err
	}
	exclude := s.sessions.bookingID(id)
	next, _, err := s.drafts.Apply(id, gestureKey, func(d booking.Draft) booking.Draft {
		return fn(snap, d, exclude)
	})
	if err != nil {
		return nil, ErrDraftNotFound
	}
	return s.render(id, next, exclude)
}

func (s *bookingService) render(id uuid.UUID, d booking.Draft, bookingID *int64) (*DraftView, error) {
	snap, err := s.inventory.SnapshotFor(d.Interval())
	if err != nil {
		return nil, err
	}
	return &DraftView{
		ID:              id,
		StartTime:       d.Start,
		DurationMinutes: d.DurationMinutes,
		Equipment:       d.Equipment,
		Packages:        d.Packages,
		PriceMode:       d.PriceMode,
		Price:           d.EffectivePrice(snap),
		BookingID:       bookingID,
		Availability:    draftAvailability(snap, d, bookingID),
	}, nil
}

// draftAvailability reports per-item remaining capacity net of the draft's
// own selection (manual lines plus package-implied units). This is the
// figure the UI gates further +/- actions on; the standalone availability
// endpoint reports the draft-independent figure instead.
func draftAvailability(snap *booking.Snapshot, d booking.Draft, excludeBookingID *int64) []EquipmentAvailability {
	equipment := snap.AllEquipment()
	rows := make([]EquipmentAvailability, 0, len(equipment))
	for _, item := range equipment {
		rows = append(rows, EquipmentAvailability{
			EquipmentID: item.ID,
			Name:        item.Name,
			Status:      item.Status,
			Total:       item.TotalQuantity,
			Remaining:   booking.DraftRemaining(snap, d, item.ID, excludeBookingID),
		})
	}
	return rows
}

func (s *bookingService) publishChanged(bookingID int64) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(context.Background(), events.Event{
		Topic:    events.TopicBookingChanged,
		EntityID: bookingID,
		At:       time.Now(),
	})
	utils.LogError(err, "publishing booking change event")
}

// translatePersistError maps repository sentinels onto the commit error
// taxonomy. Typed availability errors from the transactional re-check pass
// through untouched; a missing-column failure becomes the operator-facing
// migration message; everything else surfaces verbatim.
func translatePersistError(err error) error {
	if errors.Is(err, repositories.ErrSchemaMismatch) {
		return &booking.SchemaMismatchError{Column: extractColumn(err)}
	}
	return err
}

// extractColumn pulls the column name out of the wrapped pq error message,
// formatted as "(column: name)" by the repository layer.
func extractColumn(err error) string {
	msg := err.Error()
	const marker = "(column: "
	start := strings.Index(msg, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.IndexByte(msg[start:], ')')
	if end < 0 {
		return msg[start:]
	}
	return msg[start : start+end]
}

func valueOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// sessionIndex tracks which persisted booking (if any) a draft session is
// editing. The zero bookingID state is create mode.
type sessionIndex struct {
	mu sync.Mutex
	m  map[uuid.UUID]*int64
}

func newSessionIndex() *sessionIndex {
	return &sessionIndex{m: make(map[uuid.UUID]*int64)}
}

func (x *sessionIndex) put(id uuid.UUID, bookingID *int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.m[id] = bookingID
}

func (x *sessionIndex) bookingID(id uuid.UUID) *int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.m[id]
}

func (x *sessionIndex) remove(id uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.m, id)
}
