package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	billing "ecometer/internal/billing/domain"
)

// ResultRepository persists calculation results in Postgres. Rows are
// keyed (user_id, period_end); Save is an idempotent upsert.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository constructs a repository.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save upserts a result. A rerun for the same user and period end
// overwrites the mutable fields and keeps the original row id, which is
// written back into the passed result.
func (r *ResultRepository) Save(ctx context.Context, result *billing.CalculationResult) error {
	if r == nil || r.db == nil {
		return errors.New("result repo: nil db")
	}
	if result == nil {
		return errors.New("result repo: nil result")
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO calculation_results (id, user_id, meter_identifier, period_start,
       period_end, days_in_period, consumed_units, units_per_day,
       gross_total_cost, paid_amount, settlement_diff, note, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (user_id, period_end)
DO UPDATE SET meter_identifier = EXCLUDED.meter_identifier,
       period_start = EXCLUDED.period_start,
       days_in_period = EXCLUDED.days_in_period,
       consumed_units = EXCLUDED.consumed_units,
       units_per_day = EXCLUDED.units_per_day,
       gross_total_cost = EXCLUDED.gross_total_cost,
       paid_amount = EXCLUDED.paid_amount,
       settlement_diff = EXCLUDED.settlement_diff,
       note = EXCLUDED.note,
       computed_at = EXCLUDED.computed_at
RETURNING id`,
		result.ID, result.UserID, result.MeterIdentifier,
		result.PeriodStart.UTC(), result.PeriodEnd.UTC(), result.DaysInPeriod,
		result.ConsumedUnits, result.UnitsPerDay, result.GrossTotalCost,
		result.PaidAmount, result.SettlementDiff, result.Note,
		result.ComputedAt.UTC()).Scan(&result.ID)
}

// ListByUser returns the user's results ordered by period end.
func (r *ResultRepository) ListByUser(ctx context.Context, userID string) ([]billing.CalculationResult, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, meter_identifier, period_start, period_end, days_in_period,
       consumed_units, units_per_day, gross_total_cost, paid_amount,
       settlement_diff, note, computed_at
FROM calculation_results
WHERE user_id = $1
ORDER BY period_end ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []billing.CalculationResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// FindByUserAndPeriodEnd returns the result for one period end or nil.
func (r *ResultRepository) FindByUserAndPeriodEnd(ctx context.Context, userID string, periodEnd time.Time) (*billing.CalculationResult, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, meter_identifier, period_start, period_end, days_in_period,
       consumed_units, units_per_day, gross_total_cost, paid_amount,
       settlement_diff, note, computed_at
FROM calculation_results
WHERE user_id = $1 AND period_end = $2
LIMIT 1`, userID, periodEnd.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanResult(rows)
}

func scanResult(rows *sql.Rows) (*billing.CalculationResult, error) {
	var result billing.CalculationResult
	err := rows.Scan(&result.ID, &result.UserID, &result.MeterIdentifier,
		&result.PeriodStart, &result.PeriodEnd, &result.DaysInPeriod,
		&result.ConsumedUnits, &result.UnitsPerDay, &result.GrossTotalCost,
		&result.PaidAmount, &result.SettlementDiff, &result.Note,
		&result.ComputedAt)
	if err != nil {
		return nil, err
	}
	result.PeriodStart = result.PeriodStart.UTC()
	result.PeriodEnd = result.PeriodEnd.UTC()
	result.ComputedAt = result.ComputedAt.UTC()
	return &result, nil
}
