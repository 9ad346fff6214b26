package billing

import "errors"

var (
	// ErrNotEnoughData means fewer than two readings exist.
	ErrNotEnoughData = errors.New("billing: not enough data points")
	// ErrNoEntryForDate means an explicit bound has no exact reading.
	ErrNoEntryForDate = errors.New("billing: no reading for requested date")
	// ErrInvalidRange means the resolved start is not before the end.
	ErrInvalidRange = errors.New("billing: period start must precede end")
	// ErrZeroLengthPeriod means the boundary dates fall on the same day.
	ErrZeroLengthPeriod = errors.New("billing: zero-length period")
	// ErrNoConsumption means the boundary values are identical.
	ErrNoConsumption = errors.New("billing: no consumption in period")
	// ErrInvalidConfig means a tariff field is out of its valid range.
	ErrInvalidConfig = errors.New("billing: invalid tariff config")
	// ErrMissingConfig means the user has no tariff config row. The
	// registration side effect should make this impossible; it is an
	// internal fault, not a user error.
	ErrMissingConfig = errors.New("billing: missing tariff config")
	// ErrInvalidDate means a boundary date failed to parse.
	ErrInvalidDate = errors.New("billing: invalid date")
)
