package billing

import (
	"math"
	"strings"
)

// Calculate produces the reconciliation for a resolved period. All
// arithmetic is plain float64; nothing is rounded before presentation.
func Calculate(period Period, config TariffConfig) (CalculationResult, error) {
	start := midnight(period.Start.Timestamp)
	end := midnight(period.End.Timestamp)

	daysBetween := int(end.Sub(start).Hours() / 24)
	if daysBetween == 0 {
		return CalculationResult{}, ErrZeroLengthPeriod
	}

	consumedUnits := math.Abs(period.End.Value - period.Start.Value)
	if consumedUnits == 0 {
		return CalculationResult{}, ErrNoConsumption
	}

	netEnergyPrice := config.EnergyPriceGross/(1+config.VATRate) - config.EnergyTaxPerUnit
	netEnergyCost := consumedUnits * netEnergyPrice
	netBasePricePerMonth := config.BasePriceGross / (1 + config.VATRate)
	netBaseCostPeriod := netBasePricePerMonth * 12 / 365 * float64(daysBetween)
	netTaxCostPeriod := config.EnergyTaxPerUnit * consumedUnits
	netTotalCostPeriod := netEnergyCost + netBaseCostPeriod + netTaxCostPeriod
	grossTotalCost := netTotalCostPeriod * (1 + config.VATRate)

	estimate := EstimateInstallments(start, end, config.DueDay, config.LeadTimeDays)
	paidAmount := config.MonthlyAdvance * float64(estimate.Count) / 365 * float64(daysBetween)
	settlementDiff := paidAmount - grossTotalCost + config.AdditionalCredit

	return CalculationResult{
		UserID:          config.UserID,
		MeterIdentifier: config.MeterIdentifier,
		PeriodStart:     start,
		PeriodEnd:       end,
		DaysInPeriod:    daysBetween,
		ConsumedUnits:   consumedUnits,
		UnitsPerDay:     consumedUnits / float64(daysBetween),
		GrossTotalCost:  grossTotalCost,
		PaidAmount:      paidAmount,
		SettlementDiff:  settlementDiff,
		Note:            joinNotes(period.Note, estimate.Note),
	}, nil
}

func joinNotes(notes ...string) string {
	var kept []string
	for _, n := range notes {
		if n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, "; ")
}
