package models

import "time"

// AvailabilityWindow is a professor-declared interval of time open for booking.
// Windows owned by the same professor never overlap, regardless of booking
// state; the interval is half-open [StartTime, EndTime).
type AvailabilityWindow struct {
	ID          string    `db:"id" json:"id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Booked      bool      `db:"booked" json:"booked"`
	BookedBy    *string   `db:"booked_by" json:"booked_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// overlaps reports whether the window intersects [start, end) under half-open
// interval semantics. The storage layer enforces this in SQL; the method pins
// the same rule for documentation and tests.
func (w AvailabilityWindow) overlaps(start, end time.Time) bool {
	return w.StartTime.Before(end) && w.EndTime.After(start)
}

// OwnedWindow is a window as seen by its owner, with the booking student
// resolved when booked.
type OwnedWindow struct {
	AvailabilityWindow
	BookerName  *string `db:"booker_name" json:"booker_name,omitempty"`
	BookerEmail *string `db:"booker_email" json:"booker_email,omitempty"`
}
