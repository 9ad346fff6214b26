package billing

import (
	"context"
	"time"
)

// ConfigRepository persists tariff configs, one row per user.
type ConfigRepository interface {
	FindByUser(ctx context.Context, userID string) (*TariffConfig, error)
	Save(ctx context.Context, config *TariffConfig) error
}

// ResultRepository persists calculation results. Save is an idempotent
// upsert keyed (user id, period end); user id and period end never
// change on overwrite.
type ResultRepository interface {
	Save(ctx context.Context, result *CalculationResult) error
	ListByUser(ctx context.Context, userID string) ([]CalculationResult, error)
	FindByUserAndPeriodEnd(ctx context.Context, userID string, periodEnd time.Time) (*CalculationResult, error)
}
