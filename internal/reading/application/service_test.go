package application

import (
	"context"
	"errors"
	"testing"
	"time"

	memoryrepo "ecometer/internal/reading/infrastructure/memory"
	reading "ecometer/internal/reading/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newService(t *testing.T, now time.Time) (*ReadingService, *memoryrepo.Repository) {
	t.Helper()
	repo := memoryrepo.NewRepository()
	service, err := NewReadingService(repo, fixedClock{now: now})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo
}

func floatPtr(v float64) *float64 { return &v }

func TestAdd_AppendsMonotonically(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	inserts := []struct {
		value float64
		date  string
	}{
		{1000, "01.01.2024"},
		{1100, "01.02.2024"},
		{1150, "15.02.2024"},
	}
	for _, in := range inserts {
		if _, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(in.value), Date: in.date}); err != nil {
			t.Fatalf("add %v: %v", in, err)
		}
	}

	list, err := service.List(ctx, "u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(list))
	}
	// Newest first; both date and value strictly decrease down the list.
	for i := 1; i < len(list); i++ {
		if !list[i].Timestamp.Before(list[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly decreasing at %d", i)
		}
		if list[i].Value >= list[i-1].Value {
			t.Fatalf("values not strictly decreasing at %d", i)
		}
	}
}

func TestAdd_RejectsInvariantViolations(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	if _, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(1000), Date: "10.01.2024"}); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	cases := []struct {
		name string
		req  EntryRequest
		want error
	}{
		{"missing value", EntryRequest{Date: "11.01.2024"}, reading.ErrInvalidValue},
		{"negative value", EntryRequest{Value: floatPtr(-3), Date: "11.01.2024"}, reading.ErrInvalidValue},
		{"bad date", EntryRequest{Value: floatPtr(1100), Date: "2024-01-11"}, reading.ErrInvalidDate},
		{"back-dated", EntryRequest{Value: floatPtr(1100), Date: "09.01.2024"}, reading.ErrOutOfOrder},
		{"same day", EntryRequest{Value: floatPtr(1100), Date: "10.01.2024"}, reading.ErrDuplicateDay},
		{"lower value", EntryRequest{Value: floatPtr(900), Date: "11.01.2024"}, reading.ErrNonIncreasing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Add(ctx, "u-1", tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	list, _ := service.List(ctx, "u-1")
	if len(list) != 1 {
		t.Fatalf("rejected adds must not persist, have %d readings", len(list))
	}
}

func TestAdd_BlankDateUsesClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)
	service, _ := newService(t, now)

	entry, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(42)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !entry.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %s, got %s", now, entry.Timestamp)
	}
}

func TestUpdate_SandwichRejectLeavesEntryUnchanged(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	var middle *reading.Reading
	for _, in := range []struct {
		value float64
		date  string
	}{
		{1000, "01.01.2024"},
		{1100, "01.02.2024"},
		{1200, "01.03.2024"},
	} {
		entry, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(in.value), Date: in.date})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if in.date == "01.02.2024" {
			middle = entry
		}
	}

	// Value above the successor must be rejected.
	if _, err := service.Update(ctx, "u-1", middle.ID, EntryRequest{Value: floatPtr(1250), Date: "01.02.2024"}); !errors.Is(err, reading.ErrNonIncreasing) {
		t.Fatalf("expected ErrNonIncreasing, got %v", err)
	}
	// Date after the successor must be rejected.
	if _, err := service.Update(ctx, "u-1", middle.ID, EntryRequest{Value: floatPtr(1150), Date: "05.03.2024"}); !errors.Is(err, reading.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	stored, err := service.repo.FindByID(ctx, middle.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Value != 1100 || !reading.SameDay(stored.Timestamp, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("rejected update mutated the stored entry: %+v", stored)
	}

	// A value strictly inside the sandwich goes through.
	updated, err := service.Update(ctx, "u-1", middle.ID, EntryRequest{Value: floatPtr(1150), Date: "10.02.2024"})
	if err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if updated.Value != 1150 {
		t.Fatalf("expected 1150, got %v", updated.Value)
	}
}

func TestUpdate_BlankDateKeepsStoredTimestamp(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	entry, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(100), Date: "01.01.2024"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	updated, err := service.Update(ctx, "u-1", entry.ID, EntryRequest{Value: floatPtr(120)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Timestamp.Equal(entry.Timestamp) {
		t.Fatalf("timestamp changed: %s -> %s", entry.Timestamp, updated.Timestamp)
	}
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	entry, err := service.Add(ctx, "u-1", EntryRequest{Value: floatPtr(100), Date: "01.01.2024"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := service.Update(ctx, "u-2", entry.ID, EntryRequest{Value: floatPtr(120)}); !errors.Is(err, reading.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on update, got %v", err)
	}
	if err := service.Delete(ctx, "u-2", entry.ID); !errors.Is(err, reading.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner on delete, got %v", err)
	}
	if err := service.Delete(ctx, "u-1", entry.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := service.Delete(ctx, "u-1", entry.ID); !errors.Is(err, reading.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
