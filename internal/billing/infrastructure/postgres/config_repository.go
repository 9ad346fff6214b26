package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "ecometer/internal/billing/domain"
)

// ConfigRepository persists tariff configs in Postgres, one row per
// user.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository constructs a repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// FindByUser returns the user's tariff config or nil.
func (r *ConfigRepository) FindByUser(ctx context.Context, userID string) (*billing.TariffConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("config repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, base_price_gross, energy_price_gross, energy_tax_per_unit,
       vat_rate, monthly_advance, additional_credit, due_day, lead_time_days,
       meter_identifier, reference_date
FROM tariff_configs
WHERE user_id = $1`, userID)

	var config billing.TariffConfig
	var refDate sql.NullTime
	err := row.Scan(&config.UserID, &config.BasePriceGross, &config.EnergyPriceGross,
		&config.EnergyTaxPerUnit, &config.VATRate, &config.MonthlyAdvance,
		&config.AdditionalCredit, &config.DueDay, &config.LeadTimeDays,
		&config.MeterIdentifier, &refDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if refDate.Valid {
		t := refDate.Time.UTC()
		config.ReferenceDate = &t
	}
	return &config, nil
}

// Save upserts the user's tariff config.
func (r *ConfigRepository) Save(ctx context.Context, config *billing.TariffConfig) error {
	if r == nil || r.db == nil {
		return errors.New("config repo: nil db")
	}
	if config == nil {
		return errors.New("config repo: nil config")
	}
	var refDate sql.NullTime
	if config.ReferenceDate != nil {
		refDate = sql.NullTime{Time: config.ReferenceDate.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tariff_configs (user_id, base_price_gross, energy_price_gross,
       energy_tax_per_unit, vat_rate, monthly_advance, additional_credit,
       due_day, lead_time_days, meter_identifier, reference_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id)
DO UPDATE SET base_price_gross = EXCLUDED.base_price_gross,
       energy_price_gross = EXCLUDED.energy_price_gross,
       energy_tax_per_unit = EXCLUDED.energy_tax_per_unit,
       vat_rate = EXCLUDED.vat_rate,
       monthly_advance = EXCLUDED.monthly_advance,
       additional_credit = EXCLUDED.additional_credit,
       due_day = EXCLUDED.due_day,
       lead_time_days = EXCLUDED.lead_time_days,
       meter_identifier = EXCLUDED.meter_identifier,
       reference_date = EXCLUDED.reference_date`,
		config.UserID, config.BasePriceGross, config.EnergyPriceGross,
		config.EnergyTaxPerUnit, config.VATRate, config.MonthlyAdvance,
		config.AdditionalCredit, config.DueDay, config.LeadTimeDays,
		config.MeterIdentifier, refDate)
	return err
}
