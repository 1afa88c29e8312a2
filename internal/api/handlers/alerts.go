// Package handlers contains the HTTP handlers for the property alert API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"propertyalerts/internal/core"
	"propertyalerts/internal/types"
)

// BatchProcessor runs one pass over pending alert jobs.
type BatchProcessor interface {
	ProcessPendingJobs(ctx context.Context, batchSize int) (types.BatchResult, error)
}

// JobRequeuer moves a job back to pending.
type JobRequeuer interface {
	Requeue(ctx context.Context, jobID string) (*types.AlertJob, error)
}

// AlertRecordLister reads delivery history.
type AlertRecordLister interface {
	List(ctx context.Context, f types.AlertRecordFilter) ([]types.AlertRecord, error)
}

// processResponse is the legacy body of POST /process-property-alerts.
// Existing callers read these exact keys.
type processResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Processed    int    `json:"processed"`
	Matches      int    `json:"matches"`
	AlertsSent   int    `json:"alertsSent"`
	AccessDenied int    `json:"accessDenied"`
}

type legacyError struct {
	Error string `json:"error"`
}

type processParams struct {
	BatchSize int `query:"batch_size" validate:"gte=1,lte=50"`
}

type recordParams struct {
	BuyerID    string `query:"buyer_id" validate:"omitempty,uuid"`
	PropertyID string `query:"property_id" validate:"omitempty,uuid"`
	AlertType  string `query:"alert_type" validate:"omitempty,alert_type"`
	Limit      int    `query:"limit" validate:"gte=1,lte=200"`
}

// AlertsHandler serves the process, requeue and history endpoints.
type AlertsHandler struct {
	processor        BatchProcessor
	requeuer         JobRequeuer
	records          AlertRecordLister
	validator        *core.Validator
	logger           *slog.Logger
	defaultBatchSize int
}

func NewAlertsHandler(
	processor BatchProcessor,
	requeuer JobRequeuer,
	records AlertRecordLister,
	validator *core.Validator,
	logger *slog.Logger,
	defaultBatchSize int,
) *AlertsHandler {
	if defaultBatchSize <= 0 {
		defaultBatchSize = 10
	}
	return &AlertsHandler{
		processor:        processor,
		requeuer:         requeuer,
		records:          records,
		validator:        validator,
		logger:           logger,
		defaultBatchSize: defaultBatchSize,
	}
}

// RegisterRootRoutes mounts the legacy process endpoint behind limit.
func (h *AlertsHandler) RegisterRootRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/process-property-alerts", h.Process)
}

// RegisterRoutes mounts the /v1 endpoints.
func (h *AlertsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/alert-jobs/{id}/requeue", h.Requeue)
	r.Get("/alert-records", h.ListRecords)
}

// Process runs one batch and reports the tallies. Failures answer 500 with
// {"error": message} to keep the legacy contract.
func (h *AlertsHandler) Process(w http.ResponseWriter, r *http.Request) {
	params := processParams{BatchSize: h.defaultBatchSize}
	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			core.JSON(w, r, http.StatusBadRequest, legacyError{Error: "batch_size must be an integer"})
			return
		}
		params.BatchSize = n
	}
	if err := h.validator.ValidateStruct(params, types.ErrCodeValidationBatchSize); err != nil {
		core.JSON(w, r, http.StatusBadRequest, legacyError{Error: "batch_size must be between 1 and 50"})
		return
	}

	result, err := h.processor.ProcessPendingJobs(r.Context(), params.BatchSize)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to process alert jobs", "error", err)
		core.JSON(w, r, http.StatusInternalServerError, legacyError{Error: err.Error()})
		return
	}

	core.JSON(w, r, http.StatusOK, processResponse{
		Success:      true,
		Message:      "Property alerts processed successfully",
		Processed:    result.Processed,
		Matches:      result.Matches,
		AlertsSent:   result.AlertsSent,
		AccessDenied: result.AccessDenied,
	})
}

// Requeue handles POST /v1/alert-jobs/{id}/requeue.
func (h *AlertsHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "job id is required", nil))
		return
	}

	job, err := h.requeuer.Requeue(r.Context(), jobID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "alert job requeued", "job_id", jobID)
	core.JSON(w, r, http.StatusAccepted, core.APIResponse{Data: job})
}

// ListRecords handles GET /v1/alert-records.
func (h *AlertsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := recordParams{
		BuyerID:    q.Get("buyer_id"),
		PropertyID: q.Get("property_id"),
		AlertType:  q.Get("alert_type"),
		Limit:      types.DefaultPageLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationQuery,
				"limit must be an integer", err, map[string]any{"limit": raw}))
			return
		}
		params.Limit = n
	}
	if err := h.validator.ValidateStruct(params, types.ErrCodeValidationQuery); err != nil {
		core.Error(w, r, err)
		return
	}

	// Fetch one extra row to learn whether another page exists.
	records, err := h.records.List(r.Context(), types.AlertRecordFilter{
		BuyerID:    params.BuyerID,
		PropertyID: params.PropertyID,
		AlertType:  types.AlertType(params.AlertType),
		Limit:      params.Limit + 1,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	hasMore := len(records) > params.Limit
	if hasMore {
		records = records[:params.Limit]
	}
	core.JSON(w, r, http.StatusOK, types.ListResponse[types.AlertRecord]{
		Data:     records,
		PageInfo: types.PageInfo{HasMore: hasMore, Limit: params.Limit},
	})
}
