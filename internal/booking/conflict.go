package booking

import "time"

// Interval is a half-open time range [Start, End). A booking that ends exactly
// when another begins does not overlap it.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has both bounds set and ends strictly
// after it starts.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.End.After(i.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Booking carries the fields the conflict detector needs to reason about a
// reservation claim on a space.
type Booking struct {
	ID      string
	SpaceID string
	Start   time.Time
	End     time.Time
	Status  Status
}

// Interval returns the booking's time range.
func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Active reports whether the booking participates in conflict detection.
// Cancelled bookings never do, regardless of their interval.
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// DetectConflicts returns every existing active booking on the candidate's
// space whose interval overlaps the candidate's. The candidate itself is
// excluded by ID so that editing a booking never conflicts with its own
// persisted interval. The returned slice preserves the order of existing.
func DetectConflicts(existing []Booking, candidate Booking) []Booking {
	if !candidate.Interval().Valid() {
		return nil
	}

	var colliding []Booking
	for _, b := range existing {
		if b.ID != "" && b.ID == candidate.ID {
			continue
		}
		if b.SpaceID != candidate.SpaceID {
			continue
		}
		if !b.Active() {
			continue
		}
		if b.Interval().Overlaps(candidate.Interval()) {
			colliding = append(colliding, b)
		}
	}
	return colliding
}
