package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ecometer/internal/audit"
	"ecometer/internal/auth"
	billingapp "ecometer/internal/billing/application"
	billing "ecometer/internal/billing/domain"
	billinginterfaces "ecometer/internal/billing/interfaces"
	"ecometer/internal/observability/metrics"
	reading "ecometer/internal/reading/domain"
)

type configResponse struct {
	BasePriceGross   float64 `json:"basePriceGross"`
	EnergyPriceGross float64 `json:"energyPriceGross"`
	EnergyTaxPerUnit float64 `json:"energyTaxPerUnit"`
	VATRate          float64 `json:"vatRate"`
	MonthlyAdvance   float64 `json:"monthlyAdvance"`
	AdditionalCredit float64 `json:"additionalCredit"`
	DueDay           int     `json:"dueDay"`
	LeadTimeDays     int     `json:"leadTimeDays"`
	MeterIdentifier  string  `json:"meterIdentifier"`
	ReferenceDate    string  `json:"referenceDate,omitempty"`
}

type configUpdatePayload struct {
	BasePriceGross   *float64 `json:"basePriceGross"`
	EnergyPriceGross *float64 `json:"energyPriceGross"`
	EnergyTaxPerUnit *float64 `json:"energyTaxPerUnit"`
	VATRate          *float64 `json:"vatRate"`
	MonthlyAdvance   *float64 `json:"monthlyAdvance"`
	AdditionalCredit *float64 `json:"additionalCredit"`
	DueDay           *int     `json:"dueDay"`
	LeadTimeDays     *int     `json:"leadTimeDays"`
	MeterIdentifier  *string  `json:"meterIdentifier"`
	ReferenceDate    *string  `json:"referenceDate"`
}

type runPayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type resultResponse struct {
	MeterIdentifier string  `json:"meterIdentifier"`
	PeriodStart     string  `json:"periodStart"`
	PeriodEnd       string  `json:"periodEnd"`
	DaysInPeriod    int     `json:"daysInPeriod"`
	ConsumedUnits   float64 `json:"consumedUnits"`
	UnitsPerDay     float64 `json:"unitsPerDay"`
	GrossTotalCost  float64 `json:"grossTotalCost"`
	PaidAmount      float64 `json:"paidAmountPeriod"`
	SettlementDiff  float64 `json:"settlementDiff"`
	Note            string  `json:"note,omitempty"`
}

// Handler provides tariff-config and calculation HTTP endpoints.
type Handler struct {
	configs      *billingapp.ConfigService
	calculations *billingapp.CalculationService
	auditor      audit.Logger
}

// NewHandler constructs a handler. The auditor may be nil.
func NewHandler(configs *billingapp.ConfigService, calculations *billingapp.CalculationService, auditor audit.Logger) (*Handler, error) {
	if configs == nil {
		return nil, errors.New("billing handler: nil config service")
	}
	if calculations == nil {
		return nil, errors.New("billing handler: nil calculation service")
	}
	return &Handler{configs: configs, calculations: calculations, auditor: auditor}, nil
}

// ServeHTTP handles /api/v1/config and /api/v1/calculations routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/config":
		switch r.Method {
		case http.MethodGet:
			h.handleGetConfig(w, r)
		case http.MethodPatch:
			h.handleUpdateConfig(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "/api/v1/calculations":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleHistory(w, r)
	case "/api/v1/calculations/run":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRun(w, r)
	case "/api/v1/calculations/export.csv":
		h.handleExport(w, r, "csv")
	case "/api/v1/calculations/export.xlsx":
		h.handleExport(w, r, "xlsx")
	case "/api/v1/calculations/export.pdf":
		h.handleExport(w, r, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	config, err := h.configs.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderConfig(config))
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var payload configUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	config, err := h.configs.Update(r.Context(), userID, billingapp.ConfigUpdateRequest{
		BasePriceGross:   payload.BasePriceGross,
		EnergyPriceGross: payload.EnergyPriceGross,
		EnergyTaxPerUnit: payload.EnergyTaxPerUnit,
		VATRate:          payload.VATRate,
		MonthlyAdvance:   payload.MonthlyAdvance,
		AdditionalCredit: payload.AdditionalCredit,
		DueDay:           payload.DueDay,
		LeadTimeDays:     payload.LeadTimeDays,
		MeterIdentifier:  payload.MeterIdentifier,
		ReferenceDate:    payload.ReferenceDate,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	h.audit(r, audit.ActionConfigUpdate, userID)
	writeJSON(w, http.StatusOK, renderConfig(config))
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var payload runPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
	}
	result, err := h.calculations.Run(r.Context(), userID, billingapp.RunRequest{
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	h.audit(r, audit.ActionCalculationRun, result.ID)
	writeJSON(w, http.StatusOK, renderResult(*result))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	history, err := h.calculations.History(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]resultResponse, 0, len(history))
	for _, result := range history {
		out = append(out, renderResult(result))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	started := time.Now()
	userID := auth.UserIDFromContext(r.Context())
	history, err := h.calculations.History(r.Context(), userID)
	if err != nil {
		metrics.ObserveHistoryExport(format, metrics.ResultError, time.Since(started))
		respondError(w, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "csv":
		body, err = billinginterfaces.BuildHistoryCSV(history)
		contentType = "text/csv"
	case "xlsx":
		body, err = billinginterfaces.BuildHistoryXLSX(history)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		body, err = billinginterfaces.BuildHistoryPDF(history)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveHistoryExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.ObserveHistoryExport(format, metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="calculations.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) audit(r *http.Request, action, resourceID string) {
	if h.auditor == nil {
		return
	}
	entry := audit.FromRequest(r, auth.UserIDFromContext(r.Context()), string(auth.RoleFromContext(r.Context())), action)
	entry.ResourceType = "billing"
	entry.ResourceID = resourceID
	_ = h.auditor.Log(r.Context(), entry)
}

func renderConfig(config *billing.TariffConfig) configResponse {
	out := configResponse{
		BasePriceGross:   config.BasePriceGross,
		EnergyPriceGross: config.EnergyPriceGross,
		EnergyTaxPerUnit: config.EnergyTaxPerUnit,
		VATRate:          config.VATRate,
		MonthlyAdvance:   config.MonthlyAdvance,
		AdditionalCredit: config.AdditionalCredit,
		DueDay:           config.DueDay,
		LeadTimeDays:     config.LeadTimeDays,
		MeterIdentifier:  config.MeterIdentifier,
	}
	if config.ReferenceDate != nil {
		out.ReferenceDate = config.ReferenceDate.Format(reading.BoundaryDateLayout)
	}
	return out
}

func renderResult(result billing.CalculationResult) resultResponse {
	return resultResponse{
		MeterIdentifier: result.MeterIdentifier,
		PeriodStart:     result.PeriodStart.Format(reading.BoundaryDateLayout),
		PeriodEnd:       result.PeriodEnd.Format(reading.BoundaryDateLayout),
		DaysInPeriod:    result.DaysInPeriod,
		ConsumedUnits:   result.ConsumedUnits,
		UnitsPerDay:     result.UnitsPerDay,
		GrossTotalCost:  result.GrossTotalCost,
		PaidAmount:      result.PaidAmount,
		SettlementDiff:  result.SettlementDiff,
		Note:            result.Note,
	}
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrMissingConfig):
		http.Error(w, "tariff config missing", http.StatusInternalServerError)
	case errors.Is(err, billing.ErrNotEnoughData),
		errors.Is(err, billing.ErrNoEntryForDate),
		errors.Is(err, billing.ErrInvalidRange),
		errors.Is(err, billing.ErrZeroLengthPeriod),
		errors.Is(err, billing.ErrNoConsumption),
		errors.Is(err, billing.ErrInvalidConfig),
		errors.Is(err, billing.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
