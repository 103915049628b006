package booking

import "time"

// DefaultDurationMinutes is used when a draft is created without a duration,
// or when a non-positive duration is supplied.
const DefaultDurationMinutes = 60

// Interval is a half-open time window [Start, End). A booking ending exactly
// when another starts does not overlap it.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from a start time and a duration in minutes.
// Non-positive durations fall back to DefaultDurationMinutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps tests half-open intersection: aStart < bEnd && bStart < aEnd.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Valid reports whether the interval has positive duration.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && i.End.After(i.Start)
}

// Minutes returns the interval duration in whole minutes.
func (i Interval) Minutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}
