package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	billing "ecometer/internal/billing/domain"
)

// ConfigRepository is an in-memory tariff config store for tests.
type ConfigRepository struct {
	mu   sync.Mutex
	data map[string]billing.TariffConfig
}

// NewConfigRepository constructs a repository.
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{data: make(map[string]billing.TariffConfig)}
}

// FindByUser returns the user's config or nil.
func (r *ConfigRepository) FindByUser(_ context.Context, userID string) (*billing.TariffConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	config, ok := r.data[userID]
	if !ok {
		return nil, nil
	}
	return &config, nil
}

// Save upserts the user's config.
func (r *ConfigRepository) Save(_ context.Context, config *billing.TariffConfig) error {
	r.mu.Lock()
	r.data[config.UserID] = *config
	r.mu.Unlock()
	return nil
}

// ResultRepository is an in-memory result store for tests. Results are
// keyed (user id, period end day), mirroring the Postgres upsert.
type ResultRepository struct {
	mu   sync.Mutex
	data map[string]billing.CalculationResult
}

// NewResultRepository constructs a repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{data: make(map[string]billing.CalculationResult)}
}

func resultKey(userID string, periodEnd time.Time) string {
	return userID + "|" + periodEnd.UTC().Format("2006-01-02")
}

// Save upserts a result, preserving the first row's id.
func (r *ResultRepository) Save(_ context.Context, result *billing.CalculationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := resultKey(result.UserID, result.PeriodEnd)
	if existing, ok := r.data[key]; ok {
		result.ID = existing.ID
	}
	r.data[key] = *result
	return nil
}

// ListByUser returns the user's results ordered by period end.
func (r *ResultRepository) ListByUser(_ context.Context, userID string) ([]billing.CalculationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var results []billing.CalculationResult
	for _, result := range r.data {
		if result.UserID == userID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].PeriodEnd.Before(results[j].PeriodEnd)
	})
	return results, nil
}

// FindByUserAndPeriodEnd returns one result or nil.
func (r *ResultRepository) FindByUserAndPeriodEnd(_ context.Context, userID string, periodEnd time.Time) (*billing.CalculationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.data[resultKey(userID, periodEnd)]
	if !ok {
		return nil, nil
	}
	return &result, nil
}
