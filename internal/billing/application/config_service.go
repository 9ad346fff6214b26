package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	billing "ecometer/internal/billing/domain"
	"ecometer/internal/observability/metrics"
	reading "ecometer/internal/reading/domain"
)

// ConfigUpdateRequest is a partial tariff update. Nil fields are left
// unchanged. ReferenceDate takes a dd.MM.yyyy date that must match an
// existing reading; an empty string clears it.
type ConfigUpdateRequest struct {
	BasePriceGross   *float64
	EnergyPriceGross *float64
	EnergyTaxPerUnit *float64
	VATRate          *float64
	MonthlyAdvance   *float64
	AdditionalCredit *float64
	DueDay           *int
	LeadTimeDays     *int
	MeterIdentifier  *string
	ReferenceDate    *string
}

// ConfigService manages per-user tariff configs.
type ConfigService struct {
	configs  billing.ConfigRepository
	readings reading.Repository
	logger   *log.Logger
}

// NewConfigService constructs the service.
func NewConfigService(configs billing.ConfigRepository, readings reading.Repository, logger *log.Logger) (*ConfigService, error) {
	if configs == nil {
		return nil, errors.New("config service: nil config repository")
	}
	if readings == nil {
		return nil, errors.New("config service: nil reading repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ConfigService{configs: configs, readings: readings, logger: logger}, nil
}

// Get returns the user's tariff config. A missing row is an internal
// fault; registration creates the row before the user can reach here.
func (s *ConfigService) Get(ctx context.Context, userID string) (*billing.TariffConfig, error) {
	config, err := s.configs.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, billing.ErrMissingConfig
	}
	return config, nil
}

// Update applies a partial tariff update and validates the merged
// config before saving.
func (s *ConfigService) Update(ctx context.Context, userID string, req ConfigUpdateRequest) (*billing.TariffConfig, error) {
	config, err := s.Get(ctx, userID)
	if err != nil {
		metrics.IncConfigUpdate(metrics.ResultError)
		return nil, err
	}

	if req.BasePriceGross != nil {
		config.BasePriceGross = *req.BasePriceGross
	}
	if req.EnergyPriceGross != nil {
		config.EnergyPriceGross = *req.EnergyPriceGross
	}
	if req.EnergyTaxPerUnit != nil {
		config.EnergyTaxPerUnit = *req.EnergyTaxPerUnit
	}
	if req.VATRate != nil {
		config.VATRate = *req.VATRate
	}
	if req.MonthlyAdvance != nil {
		config.MonthlyAdvance = *req.MonthlyAdvance
	}
	if req.AdditionalCredit != nil {
		config.AdditionalCredit = *req.AdditionalCredit
	}
	if req.DueDay != nil {
		config.DueDay = *req.DueDay
	}
	if req.LeadTimeDays != nil {
		config.LeadTimeDays = *req.LeadTimeDays
	}
	if req.MeterIdentifier != nil {
		config.MeterIdentifier = *req.MeterIdentifier
	}
	if req.ReferenceDate != nil {
		refDate, err := s.resolveReferenceDate(ctx, userID, *req.ReferenceDate)
		if err != nil {
			metrics.IncConfigUpdate(metrics.ResultError)
			return nil, err
		}
		config.ReferenceDate = refDate
	}

	if err := config.Validate(); err != nil {
		metrics.IncConfigUpdate(metrics.ResultError)
		return nil, err
	}
	if err := s.configs.Save(ctx, config); err != nil {
		metrics.IncConfigUpdate(metrics.ResultError)
		return nil, err
	}
	metrics.IncConfigUpdate(metrics.ResultSuccess)
	return config, nil
}

// InitializeDefaults creates the default tariff config for a fresh
// user. It is a no-op when a config already exists, so redelivered
// registration events are harmless.
func (s *ConfigService) InitializeDefaults(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("config service: empty user id")
	}
	existing, err := s.configs.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	config := billing.DefaultTariffConfig(userID)
	if err := s.configs.Save(ctx, &config); err != nil {
		return err
	}
	s.logger.Printf("billing: default tariff config created user=%s", userID)
	return nil
}

// resolveReferenceDate maps a boundary date onto an existing reading's
// timestamp. A blank value clears the anchor.
func (s *ConfigService) resolveReferenceDate(ctx context.Context, userID, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	day, err := time.Parse(reading.BoundaryDateLayout, value)
	if err != nil {
		return nil, billing.ErrInvalidDate
	}
	entry, err := s.readings.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, billing.ErrNoEntryForDate
	}
	anchored := entry.Timestamp
	return &anchored, nil
}
