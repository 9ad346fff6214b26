package reading

import (
	"math"
	"time"
)

// ValidateNew checks whether a candidate reading may be appended.
// Inserts are validated against the latest stored reading only; the
// full sandwich check is reserved for updates, which may land anywhere
// in history.
func ValidateNew(value float64, date time.Time, latest *Reading) error {
	if math.IsNaN(value) || value < 0 {
		return ErrInvalidValue
	}
	if latest == nil {
		return nil
	}
	candidateDay := DayOf(date)
	latestDay := latest.Day()
	if candidateDay.Before(latestDay) {
		return ErrOutOfOrder
	}
	if candidateDay.Equal(latestDay) {
		return ErrDuplicateDay
	}
	if value <= latest.Value {
		return ErrNonIncreasing
	}
	return nil
}

// Neighbors carries the sandwich context for an update: the nearest
// readings before and after the candidate date, excluding the edited
// entry itself. Either side may be nil.
type Neighbors struct {
	Predecessor *Reading
	Successor   *Reading
}

// ValidateUpdate checks whether an edited reading still fits strictly
// between its new neighbors in both value and calendar date.
func ValidateUpdate(value float64, date time.Time, neighbors Neighbors) error {
	if math.IsNaN(value) || value < 0 {
		return ErrInvalidValue
	}
	if neighbors.Predecessor == nil && neighbors.Successor == nil {
		return nil
	}

	candidateDay := DayOf(date)
	if pred := neighbors.Predecessor; pred != nil {
		if candidateDay.Before(pred.Day()) {
			return ErrOutOfOrder
		}
		if value <= pred.Value {
			return ErrNonIncreasing
		}
	}
	if succ := neighbors.Successor; succ != nil {
		if candidateDay.After(succ.Day()) {
			return ErrOutOfOrder
		}
		if value >= succ.Value {
			return ErrNonIncreasing
		}
	}
	return nil
}
