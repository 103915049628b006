package booking

import (
	"sort"

	"gear_rental_backend/internal/models"
)

// Snapshot is an immutable in-memory working set of equipment, packages and
// candidate-overlapping bookings, loaded wholesale from persistence. All
// capacity questions for a working window are answered against one snapshot;
// drafts never mutate it; their effect on capacity is computed on the fly.
type Snapshot struct {
	equipment map[int64]*models.EquipmentItem
	packages  map[int64]*models.Package
	bookings  []models.Booking
}

// NewSnapshot builds a snapshot from freshly loaded records.
func NewSnapshot(equipment []models.EquipmentItem, packages []models.Package, bookings []models.Booking) *Snapshot {
	snap := &Snapshot{
		equipment: make(map[int64]*models.EquipmentItem, len(equipment)),
		packages:  make(map[int64]*models.Package, len(packages)),
		bookings:  bookings,
	}
	for i := range equipment {
		snap.equipment[equipment[i].ID] = &equipment[i]
	}
	for i := range packages {
		snap.packages[packages[i].ID] = &packages[i]
	}
	return snap
}

// Equipment returns the equipment item with the given id, or nil.
func (s *Snapshot) Equipment(id int64) *models.EquipmentItem {
	return s.equipment[id]
}

// AllEquipment returns every loaded equipment item, ordered by id.
func (s *Snapshot) AllEquipment() []*models.EquipmentItem {
	ids := make([]int64, 0, len(s.equipment))
	for id := range s.equipment {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*models.EquipmentItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.equipment[id])
	}
	return out
}

// Package returns the package with the given id, or nil.
func (s *Snapshot) Package(id int64) *models.Package {
	return s.packages[id]
}

// Bookings returns all loaded bookings.
func (s *Snapshot) Bookings() []models.Booking {
	return s.bookings
}

// BookingsOverlapping returns the loaded bookings whose [start, end)
// intersects the query interval, excluding the booking with the given id
// when excludeBookingID is non-nil (used when editing a booking so it does
// not count against itself).
func (s *Snapshot) BookingsOverlapping(ivl Interval, excludeBookingID *int64) []models.Booking {
	var out []models.Booking
	for _, b := range s.bookings {
		if excludeBookingID != nil && b.ID == *excludeBookingID {
			continue
		}
		if (Interval{Start: b.StartTime, End: b.EndTime}).Overlaps(ivl) {
			out = append(out, b)
		}
	}
	return out
}
