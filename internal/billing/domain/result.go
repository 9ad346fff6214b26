package billing

import "time"

// CalculationResult is the reconciliation for one period. One record
// exists per (user, period end); reruns overwrite the mutable fields.
type CalculationResult struct {
	ID              string
	UserID          string
	MeterIdentifier string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	DaysInPeriod    int
	ConsumedUnits   float64
	UnitsPerDay     float64
	GrossTotalCost  float64
	PaidAmount      float64
	// SettlementDiff is PaidAmount - GrossTotalCost + additionalCredit.
	// Positive means the user overpaid.
	SettlementDiff float64
	Note           string
	ComputedAt     time.Time
}
