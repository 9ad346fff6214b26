package reading

import "errors"

var (
	// ErrInvalidValue is returned when a reading value is missing, negative or not a number.
	ErrInvalidValue = errors.New("reading: invalid value")
	// ErrInvalidDate is returned when a boundary date string cannot be parsed.
	ErrInvalidDate = errors.New("reading: invalid date")
	// ErrOutOfOrder is returned when a reading's date conflicts with its neighbors.
	ErrOutOfOrder = errors.New("reading: out of order")
	// ErrDuplicateDay is returned when a reading would share a calendar day with another.
	ErrDuplicateDay = errors.New("reading: duplicate day")
	// ErrNonIncreasing is returned when a value does not fit strictly between its neighbors.
	ErrNonIncreasing = errors.New("reading: value not strictly increasing")
	// ErrNotFound is returned when a reading id does not exist.
	ErrNotFound = errors.New("reading: not found")
	// ErrNotOwner is returned when a user mutates another user's reading.
	ErrNotOwner = errors.New("reading: not owner")
)
