package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	billing "ecometer/internal/billing/domain"
	billingrepo "ecometer/internal/billing/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS calculation_results (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	meter_identifier TEXT NOT NULL,
	period_start TIMESTAMPTZ NOT NULL,
	period_end TIMESTAMPTZ NOT NULL,
	days_in_period INT NOT NULL,
	consumed_units DOUBLE PRECISION NOT NULL,
	units_per_day DOUBLE PRECISION NOT NULL,
	gross_total_cost DOUBLE PRECISION NOT NULL,
	paid_amount DOUBLE PRECISION NOT NULL,
	settlement_diff DOUBLE PRECISION NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	computed_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, period_end)
)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS tariff_configs (
	user_id TEXT PRIMARY KEY,
	base_price_gross DOUBLE PRECISION NOT NULL,
	energy_price_gross DOUBLE PRECISION NOT NULL,
	energy_tax_per_unit DOUBLE PRECISION NOT NULL,
	vat_rate DOUBLE PRECISION NOT NULL,
	monthly_advance DOUBLE PRECISION NOT NULL,
	additional_credit DOUBLE PRECISION NOT NULL,
	due_day INT NOT NULL,
	lead_time_days INT NOT NULL,
	meter_identifier TEXT NOT NULL,
	reference_date TIMESTAMPTZ
)`)
	if err != nil {
		t.Fatalf("create config table: %v", err)
	}
	return db
}

func TestResultRepository_UpsertByUserAndPeriodEnd(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := "it-billing-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM calculation_results WHERE user_id = $1`, userID)

	repo := billingrepo.NewResultRepository(db)
	periodEnd := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	first := billing.CalculationResult{
		ID:              "it-res-1",
		UserID:          userID,
		MeterIdentifier: "EMPTY-METER-ID",
		PeriodStart:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       periodEnd,
		DaysInPeriod:    31,
		ConsumedUnits:   100,
		UnitsPerDay:     100.0 / 31,
		GrossTotalCost:  46.80,
		PaidAmount:      0,
		SettlementDiff:  -46.80,
		ComputedAt:      time.Now().UTC(),
	}
	if err := repo.Save(ctx, &first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := first
	second.ID = "it-res-2"
	second.PaidAmount = 12.74
	second.SettlementDiff = second.PaidAmount - second.GrossTotalCost
	second.ComputedAt = time.Now().UTC()
	if err := repo.Save(ctx, &second); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.ID != "it-res-1" {
		t.Fatalf("save must report the kept row id, got %s", second.ID)
	}

	list, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one row after rerun, got %d", len(list))
	}
	// The conflicting insert keeps the first row id but carries the
	// latest values.
	if list[0].ID != "it-res-1" {
		t.Fatalf("row id = %s", list[0].ID)
	}
	if list[0].PaidAmount != 12.74 {
		t.Fatalf("paid = %v, want latest value", list[0].PaidAmount)
	}

	found, err := repo.FindByUserAndPeriodEnd(ctx, userID, periodEnd)
	if err != nil || found == nil {
		t.Fatalf("find: %+v err=%v", found, err)
	}
	if !found.PeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end = %s", found.PeriodEnd)
	}
}

func TestConfigRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := "it-config-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM tariff_configs WHERE user_id = $1`, userID)

	repo := billingrepo.NewConfigRepository(db)

	missing, err := repo.FindByUser(ctx, userID)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing config, got %+v err=%v", missing, err)
	}

	config := billing.DefaultTariffConfig(userID)
	refDate := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	config.ReferenceDate = &refDate
	if err := repo.Save(ctx, &config); err != nil {
		t.Fatalf("save: %v", err)
	}

	config.MonthlyAdvance = 80
	if err := repo.Save(ctx, &config); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := repo.FindByUser(ctx, userID)
	if err != nil || loaded == nil {
		t.Fatalf("load: %+v err=%v", loaded, err)
	}
	if loaded.MonthlyAdvance != 80 || loaded.DueDay != billing.DefaultDueDay {
		t.Fatalf("unexpected config: %+v", loaded)
	}
	if loaded.ReferenceDate == nil || !loaded.ReferenceDate.Equal(refDate) {
		t.Fatalf("reference date = %v", loaded.ReferenceDate)
	}
}
