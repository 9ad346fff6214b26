package billing

import (
	"fmt"
	"time"
)

// InstallmentEstimate is the outcome of the calendar walk.
type InstallmentEstimate struct {
	Count   int
	Skipped bool
	// Note is non-empty only when the lead-time window skipped the
	// first installment; it carries the resulting count.
	Note string
}

// EstimateInstallments counts the monthly advance installments due
// within [periodStart, periodEnd]. The first nominal due date is the
// period start month's dueDay; if it already passed, or if it falls
// inside the processing lead-time window after the period start, it
// moves to the next month (the latter counts as a skipped
// installment).
func EstimateInstallments(periodStart, periodEnd time.Time, dueDay, leadTimeDays int) InstallmentEstimate {
	start := midnight(periodStart)
	end := midnight(periodEnd)

	due := withDueDay(start, dueDay)
	if due.Before(start) {
		due = withDueDay(addMonth(due), dueDay)
	}

	var estimate InstallmentEstimate
	if int(due.Sub(start).Hours()/24) <= leadTimeDays {
		due = withDueDay(addMonth(due), dueDay)
		estimate.Skipped = true
	}

	for !due.After(end) {
		estimate.Count++
		due = withDueDay(addMonth(due), dueDay)
	}

	if estimate.Skipped {
		estimate.Note = fmt.Sprintf("first installment skipped (processing lead time); counting %d installments", estimate.Count)
	}
	return estimate
}

// withDueDay replaces the day of month, clamping to the month's last
// day when dueDay does not exist in it (time.Date would roll over into
// the next month instead).
func withDueDay(t time.Time, dueDay int) time.Time {
	last := lastDayOfMonth(t.Year(), t.Month())
	day := dueDay
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
}

// addMonth moves to the first of the following month; the caller
// reapplies the due day.
func addMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
