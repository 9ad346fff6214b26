package billing

import (
	"time"

	reading "ecometer/internal/reading/domain"
)

// FullHistoryNote is attached when a missing bound forced the fallback.
const FullHistoryNote = "fallback to full history"

// MinDataPoints is the minimum number of readings a calculation needs.
const MinDataPoints = 2

// Period holds the two boundary readings of a calculation.
type Period struct {
	Start reading.Reading
	End   reading.Reading
	Note  string
}

// ResolvePeriod picks the boundary readings. The input list is ordered
// newest first. When either bound is absent the whole history is used
// (oldest to newest) and the note records the fallback; explicit bounds
// require an exact calendar-date match, no interpolation.
func ResolvePeriod(readings []reading.Reading, startDate, endDate *time.Time) (Period, error) {
	if len(readings) < MinDataPoints {
		return Period{}, ErrNotEnoughData
	}

	var period Period
	if startDate == nil || endDate == nil {
		period.End = readings[0]
		period.Start = readings[len(readings)-1]
		period.Note = FullHistoryNote
	} else {
		start := findByDay(readings, *startDate)
		if start == nil {
			return Period{}, ErrNoEntryForDate
		}
		end := findByDay(readings, *endDate)
		if end == nil {
			return Period{}, ErrNoEntryForDate
		}
		period.Start = *start
		period.End = *end
	}

	if !reading.DayOf(period.Start.Timestamp).Before(reading.DayOf(period.End.Timestamp)) {
		return Period{}, ErrInvalidRange
	}
	return period, nil
}

func findByDay(readings []reading.Reading, day time.Time) *reading.Reading {
	for i := range readings {
		if reading.SameDay(readings[i].Timestamp, day) {
			return &readings[i]
		}
	}
	return nil
}
