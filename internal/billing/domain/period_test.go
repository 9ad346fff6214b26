package billing

import (
	"errors"
	"testing"
	"time"

	reading "ecometer/internal/reading/domain"
)

func entries(points ...struct {
	d time.Time
	v float64
}) []reading.Reading {
	// Build newest-first, the order repositories return.
	out := make([]reading.Reading, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		out = append(out, reading.Reading{
			ID:        points[i].d.Format("2006-01-02"),
			UserID:    "u-1",
			Value:     points[i].v,
			Timestamp: points[i].d,
		})
	}
	return out
}

func point(d time.Time, v float64) struct {
	d time.Time
	v float64
} {
	return struct {
		d time.Time
		v float64
	}{d, v}
}

func TestResolvePeriod_FullHistoryFallback(t *testing.T) {
	list := entries(
		point(date(2024, time.January, 1), 1000),
		point(date(2024, time.February, 1), 1100),
		point(date(2024, time.March, 1), 1180),
	)

	period, err := ResolvePeriod(list, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !period.Start.Timestamp.Equal(date(2024, time.January, 1)) {
		t.Fatalf("start = %s", period.Start.Timestamp)
	}
	if !period.End.Timestamp.Equal(date(2024, time.March, 1)) {
		t.Fatalf("end = %s", period.End.Timestamp)
	}
	if period.Note != FullHistoryNote {
		t.Fatalf("note = %q", period.Note)
	}
}

func TestResolvePeriod_ExactDates(t *testing.T) {
	list := entries(
		point(date(2024, time.January, 1), 1000),
		point(date(2024, time.February, 1), 1100),
		point(date(2024, time.March, 1), 1180),
	)
	start := date(2024, time.January, 1)
	end := date(2024, time.February, 1)

	period, err := ResolvePeriod(list, &start, &end)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if period.Start.Value != 1000 || period.End.Value != 1100 {
		t.Fatalf("wrong boundaries: %+v", period)
	}
	if period.Note != "" {
		t.Fatalf("explicit bounds must not carry a note, got %q", period.Note)
	}
}

func TestResolvePeriod_Errors(t *testing.T) {
	list := entries(
		point(date(2024, time.January, 1), 1000),
		point(date(2024, time.February, 1), 1100),
	)
	jan := date(2024, time.January, 1)
	feb := date(2024, time.February, 1)
	missing := date(2024, time.January, 15)

	t.Run("single reading", func(t *testing.T) {
		one := entries(point(jan, 1000))
		if _, err := ResolvePeriod(one, nil, nil); !errors.Is(err, ErrNotEnoughData) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("no reading on start date", func(t *testing.T) {
		if _, err := ResolvePeriod(list, &missing, &feb); !errors.Is(err, ErrNoEntryForDate) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("no reading on end date", func(t *testing.T) {
		if _, err := ResolvePeriod(list, &jan, &missing); !errors.Is(err, ErrNoEntryForDate) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("inverted range", func(t *testing.T) {
		if _, err := ResolvePeriod(list, &feb, &jan); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("equal bounds", func(t *testing.T) {
		if _, err := ResolvePeriod(list, &jan, &jan); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("got %v", err)
		}
	})
}
