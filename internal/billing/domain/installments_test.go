package billing

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEstimateInstallments(t *testing.T) {
	cases := []struct {
		name        string
		start, end  time.Time
		dueDay      int
		leadTime    int
		wantCount   int
		wantSkipped bool
	}{
		{
			name:  "due day already passed moves to next month",
			start: date(2024, time.January, 10), end: date(2024, time.March, 10),
			dueDay: 5, leadTime: 0,
			wantCount: 2, // Feb 5, Mar 5
		},
		{
			name:  "lead time skips the first due date",
			start: date(2024, time.January, 1), end: date(2024, time.March, 31),
			dueDay: 5, leadTime: 15,
			wantCount: 2, wantSkipped: true, // Jan 5 skipped; Feb 5, Mar 5
		},
		{
			name:  "gap exactly equal to lead time still skips",
			start: date(2024, time.January, 1), end: date(2024, time.February, 28),
			dueDay: 16, leadTime: 15,
			wantCount: 1, wantSkipped: true, // Jan 16 skipped; Feb 16
		},
		{
			name:  "gap one beyond lead time charges",
			start: date(2024, time.January, 1), end: date(2024, time.February, 28),
			dueDay: 17, leadTime: 15,
			wantCount: 2, // Jan 17, Feb 17
		},
		{
			name:  "no installment fits the period",
			start: date(2024, time.January, 1), end: date(2024, time.January, 31),
			dueDay: 5, leadTime: 15,
			wantCount: 0, wantSkipped: true, // Jan 5 skipped, Feb 5 past end
		},
		{
			name:  "due day 31 clamps to end of short months",
			start: date(2024, time.January, 25), end: date(2024, time.April, 30),
			dueDay: 31, leadTime: 0,
			wantCount: 4, // Jan 31, Feb 29, Mar 31, Apr 30
		},
		{
			name:  "year boundary",
			start: date(2023, time.November, 20), end: date(2024, time.February, 20),
			dueDay: 5, leadTime: 0,
			wantCount: 3, // Dec 5, Jan 5, Feb 5
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateInstallments(tc.start, tc.end, tc.dueDay, tc.leadTime)
			if got.Count != tc.wantCount {
				t.Fatalf("count = %d, want %d", got.Count, tc.wantCount)
			}
			if got.Skipped != tc.wantSkipped {
				t.Fatalf("skipped = %v, want %v", got.Skipped, tc.wantSkipped)
			}
			if tc.wantSkipped && got.Note == "" {
				t.Fatal("skip must carry a note")
			}
			if !tc.wantSkipped && got.Note != "" {
				t.Fatalf("unexpected note %q", got.Note)
			}
		})
	}
}

// Period start three days before the due day with a 15-day lead time:
// the first installment is skipped and the count is one less than with
// no lead time at all.
func TestEstimateInstallments_LeadTimeSkipVersusNaive(t *testing.T) {
	start := date(2024, time.January, 2)
	end := date(2024, time.April, 2)

	naive := EstimateInstallments(start, end, 5, 0)
	withLead := EstimateInstallments(start, end, 5, 15)

	if naive.Skipped {
		t.Fatal("naive walk must not skip")
	}
	if !withLead.Skipped || withLead.Note == "" {
		t.Fatalf("lead-time walk must skip with a note, got %+v", withLead)
	}
	if withLead.Count != naive.Count-1 {
		t.Fatalf("count = %d, want one less than naive %d", withLead.Count, naive.Count)
	}
}
