package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/events"
	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/pkg/async"
	"gear_rental_backend/pkg/utils"
)

var (
	ErrInventoryUnavailable = errors.New("inventory could not be loaded")
)

// refreshDebounceWindow bounds how often a burst of remote change events can
// trigger an inventory reload.
const refreshDebounceWindow = 500 * time.Millisecond

// EquipmentAvailability is one row of the availability report for a window:
// how many units remain bookable after all confirmed overlapping bookings.
type EquipmentAvailability struct {
	EquipmentID int64                  `json:"equipment_id"`
	Name        string                 `json:"name"`
	Status      models.EquipmentStatus `json:"status"`
	Total       int                    `json:"total_quantity"`
	Remaining   int                    `json:"remaining"`
}

// InventoryService loads and caches the working Snapshot all capacity
// questions are answered against.
type InventoryService interface {
	// SnapshotFor returns a snapshot covering the given window, loading fresh
	// data when the cache does not cover it. A failed reload falls back to the
	// last known good snapshot when one covers the window.
	SnapshotFor(ivl booking.Interval) (*booking.Snapshot, error)
	// FreshSnapshot always bypasses the cache. Commits validate against this.
	FreshSnapshot(ivl booking.Interval) (*booking.Snapshot, error)
	Availability(ivl booking.Interval, excludeBookingID *int64) ([]EquipmentAvailability, error)
	// Invalidate drops the cache so the next read reloads.
	Invalidate()
	Close()
}

type inventoryService struct {
	equipmentRepo repositories.EquipmentRepository
	packageRepo   repositories.PackageRepository
	bookingRepo   repositories.BookingRepository

	seq      async.Sequencer
	debounce *async.Debouncer

	mu        sync.Mutex
	cached    *booking.Snapshot
	cachedIvl booking.Interval

	unsubscribe []func()
}

// NewInventoryService creates the snapshot provider and subscribes it to
// change notifications: remote booking or inventory changes invalidate the
// cache behind a debounce, so a burst of changes costs one reload at most.
func NewInventoryService(
	er repositories.EquipmentRepository,
	pr repositories.PackageRepository,
	br repositories.BookingRepository,
	bus events.Bus,
) InventoryService {
	s := &inventoryService{
		equipmentRepo: er,
		packageRepo:   pr,
		bookingRepo:   br,
		debounce:      async.NewDebouncer(refreshDebounceWindow),
	}
	if bus != nil {
		onChange := func(events.Event) {
			s.debounce.Trigger(s.refresh)
		}
		s.unsubscribe = append(s.unsubscribe,
			bus.Subscribe(events.TopicBookingChanged, onChange),
			bus.Subscribe(events.TopicInventoryChanged, onChange),
		)
	}
	return s
}

func (s *inventoryService) SnapshotFor(ivl booking.Interval) (*booking.Snapshot, error) {
	s.mu.Lock()
	if s.cached != nil && covers(s.cachedIvl, ivl) {
		snap := s.cached
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	snap, err := s.load(ivl)
	if err != nil {
		// A failed refresh is non-critical: keep serving the stale snapshot
		// when it covers the window instead of surfacing a blocking error.
		s.mu.Lock()
		cached := s.cached
		cachedIvl := s.cachedIvl
		s.mu.Unlock()
		if cached != nil && covers(cachedIvl, ivl) {
			utils.LogError(err, "inventory reload failed, serving last known snapshot")
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	return snap, nil
}

func (s *inventoryService) FreshSnapshot(ivl booking.Interval) (*booking.Snapshot, error) {
	snap, err := s.load(ivl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	return snap, nil
}

// load reads equipment, packages and overlapping bookings and installs the
// result in the cache unless a newer load was issued meanwhile. Superseded
// results are returned to their caller but never overwrite newer cache state.
func (s *inventoryService) load(ivl booking.Interval) (*booking.Snapshot, error) {
	token := s.seq.Issue()

	equipment, err := s.equipmentRepo.GetEquipmentItems()
	if err != nil {
		return nil, fmt.Errorf("loading equipment: %w", err)
	}
	packages, err := s.packageRepo.GetPackages()
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	bookings, err := s.bookingRepo.GetBookingsOverlapping(ivl.Start, ivl.End)
	if err != nil {
		return nil, fmt.Errorf("loading overlapping bookings: %w", err)
	}

	snap := booking.NewSnapshot(equipment, packages, bookings)
	if s.seq.Apply(token) {
		s.mu.Lock()
		s.cached = snap
		s.cachedIvl = ivl
		s.mu.Unlock()
	}
	return snap, nil
}

func (s *inventoryService) Availability(ivl booking.Interval, excludeBookingID *int64) ([]EquipmentAvailability, error) {
	snap, err := s.SnapshotFor(ivl)
	if err != nil {
		return nil, err
	}

	equipment := snap.AllEquipment()
	report := make([]EquipmentAvailability, 0, len(equipment))
	for _, item := range equipment {
		report = append(report, EquipmentAvailability{
			EquipmentID: item.ID,
			Name:        item.Name,
			Status:      item.Status,
			Total:       item.TotalQuantity,
			Remaining:   booking.RemainingCapacity(snap, item.ID, ivl, excludeBookingID),
		})
	}
	return report, nil
}

func (s *inventoryService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// refresh reloads the cached window in the background after a change event.
func (s *inventoryService) refresh() {
	s.mu.Lock()
	had := s.cached != nil
	ivl := s.cachedIvl
	s.mu.Unlock()
	if !had {
		return
	}
	if _, err := s.load(ivl); err != nil {
		utils.LogError(err, "debounced inventory refresh failed")
	}
}

func (s *inventoryService) Close() {
	s.debounce.Stop()
	for _, u := range s.unsubscribe {
		u()
	}
}

// covers reports whether the cached window fully contains the query window.
func covers(cached, query booking.Interval) bool {
	return !cached.Start.After(query.Start) && !cached.End.Before(query.End)
}
