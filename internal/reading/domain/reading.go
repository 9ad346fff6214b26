package reading

import "time"

const (
	// BoundaryDateLayout is the date format accepted and returned at the API boundary.
	BoundaryDateLayout = "02.01.2006"
	// StoredTimeLayout is the textual form of persisted timestamps.
	StoredTimeLayout = "2006-01-02 15:04:05"
)

// Reading is one cumulative meter value tracked for a user.
// Only the calendar date of Timestamp matters for ordering; the
// time of day is stored but never compared.
type Reading struct {
	ID        string
	UserID    string
	Value     float64
	Timestamp time.Time
}

// Day returns the reading's calendar day at midnight UTC.
func (r Reading) Day() time.Time {
	return DayOf(r.Timestamp)
}

// DayOf truncates a timestamp to its calendar day at midnight UTC.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}
