package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	billing "ecometer/internal/billing/domain"
	"ecometer/internal/observability/metrics"
	reading "ecometer/internal/reading/domain"
)

// RunRequest selects the calculation period. Dates use dd.MM.yyyy;
// both blank means full-history mode.
type RunRequest struct {
	StartDate string
	EndDate   string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// CalculationService runs reconciliations and keeps their history.
type CalculationService struct {
	readings reading.Repository
	configs  *ConfigService
	results  billing.ResultRepository
	clock    Clock
	logger   *log.Logger
}

// NewCalculationService constructs the service.
func NewCalculationService(readings reading.Repository, configs *ConfigService, results billing.ResultRepository, clock Clock, logger *log.Logger) (*CalculationService, error) {
	if readings == nil {
		return nil, errors.New("calculation service: nil reading repository")
	}
	if configs == nil {
		return nil, errors.New("calculation service: nil config service")
	}
	if results == nil {
		return nil, errors.New("calculation service: nil result repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CalculationService{
		readings: readings,
		configs:  configs,
		results:  results,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Run resolves the period, computes the reconciliation and upserts the
// result. The config's reference date stands in for a missing start
// bound before the full-history fallback applies.
func (s *CalculationService) Run(ctx context.Context, userID string, req RunRequest) (*billing.CalculationResult, error) {
	started := s.clock.Now()

	result, err := s.run(ctx, userID, req)
	if err != nil {
		metrics.ObserveCalculationRun(metrics.ResultError, time.Since(started))
		return nil, err
	}
	metrics.ObserveCalculationRun(metrics.ResultSuccess, time.Since(started))
	return result, nil
}

func (s *CalculationService) run(ctx context.Context, userID string, req RunRequest) (*billing.CalculationResult, error) {
	if userID == "" {
		return nil, errors.New("calculation service: empty user id")
	}
	startDate, err := parseBoundaryDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseBoundaryDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	config, err := s.configs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if startDate == nil && endDate != nil && config.ReferenceDate != nil {
		startDate = config.ReferenceDate
	}

	// With both bounds known only the readings inside the window are
	// relevant; the data-point minimum then applies to that window, not
	// to the full history.
	var list []reading.Reading
	if startDate != nil && endDate != nil {
		from := dayFloor(*startDate)
		to := dayFloor(*endDate).AddDate(0, 0, 1).Add(-time.Nanosecond)
		list, err = s.readings.ListByUserBetween(ctx, userID, from, to)
	} else {
		list, err = s.readings.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	period, err := billing.ResolvePeriod(list, startDate, endDate)
	if err != nil {
		return nil, err
	}

	result, err := billing.Calculate(period, *config)
	if err != nil {
		return nil, err
	}
	result.ID = uuid.NewString()
	result.ComputedAt = s.clock.Now()

	if err := s.results.Save(ctx, &result); err != nil {
		return nil, err
	}
	s.logger.Printf("billing: calculation stored user=%s periodEnd=%s gross=%.2f settlement=%.2f",
		userID, result.PeriodEnd.Format("2006-01-02"), result.GrossTotalCost, result.SettlementDiff)
	return &result, nil
}

// History returns the user's stored results ordered by period end.
func (s *CalculationService) History(ctx context.Context, userID string) ([]billing.CalculationResult, error) {
	if userID == "" {
		return nil, errors.New("calculation service: empty user id")
	}
	return s.results.ListByUser(ctx, userID)
}

func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseBoundaryDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(reading.BoundaryDateLayout, value)
	if err != nil {
		return nil, billing.ErrInvalidDate
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
