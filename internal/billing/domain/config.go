package billing

import "time"

// Original supplier defaults, applied when a user registers.
const (
	DefaultBasePriceGross   = 11.90
	DefaultEnergyPriceGross = 0.3467
	DefaultEnergyTaxPerUnit = 0.0205
	DefaultVATRate          = 0.19
	DefaultMonthlyAdvance   = 50.0
	DefaultDueDay           = 5
	DefaultLeadTimeDays     = 15
	DefaultMeterIdentifier  = "EMPTY-METER-ID"
)

// TariffConfig holds one user's tariff parameters. Monetary fields are
// gross (VAT-inclusive) unless named otherwise.
type TariffConfig struct {
	UserID           string
	BasePriceGross   float64
	EnergyPriceGross float64
	EnergyTaxPerUnit float64
	VATRate          float64
	MonthlyAdvance   float64
	AdditionalCredit float64
	DueDay           int
	LeadTimeDays     int
	MeterIdentifier  string
	// ReferenceDate optionally anchors the period start; when set it
	// must match an existing reading's calendar date.
	ReferenceDate *time.Time
}

// DefaultTariffConfig returns the config created on registration.
func DefaultTariffConfig(userID string) TariffConfig {
	return TariffConfig{
		UserID:           userID,
		BasePriceGross:   DefaultBasePriceGross,
		EnergyPriceGross: DefaultEnergyPriceGross,
		EnergyTaxPerUnit: DefaultEnergyTaxPerUnit,
		VATRate:          DefaultVATRate,
		MonthlyAdvance:   DefaultMonthlyAdvance,
		DueDay:           DefaultDueDay,
		LeadTimeDays:     DefaultLeadTimeDays,
		MeterIdentifier:  DefaultMeterIdentifier,
	}
}

// Validate checks field ranges.
func (c TariffConfig) Validate() error {
	switch {
	case c.BasePriceGross < 0,
		c.EnergyPriceGross < 0,
		c.EnergyTaxPerUnit < 0,
		c.VATRate < 0,
		c.MonthlyAdvance < 0,
		c.LeadTimeDays < 0:
		return ErrInvalidConfig
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidConfig
	}
	return nil
}
