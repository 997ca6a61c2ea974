package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/auth"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/metrics"
	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/service"
)

// MetricHandler serves metric ingestion, range queries and aggregation.
type MetricHandler struct {
	metrics    *service.MetricService
	aggregates *service.AggregateService
	logger     *slog.Logger
}

// NewMetricHandler creates a MetricHandler.
func NewMetricHandler(m *service.MetricService, a *service.AggregateService, logger *slog.Logger) *MetricHandler {
	return &MetricHandler{metrics: m, aggregates: a, logger: logger}
}

type metricSubmitRequest struct {
	Data json.RawMessage `json:"data"`
}

type metricSubmitResponse struct {
	Status      string    `json:"status"`
	ReferenceID string    `json:"reference_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// HandleSubmit stores one monitoring payload. The machine is derived from
// the payload itself (machine_info.mac or mac_address).
//
// HTTP: PUT /api/maquina/status
func (h *MetricHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req metricSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid metric JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}
	if len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "field data is required"})
		return
	}

	record, err := h.metrics.Append(r.Context(), claims.UserID, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.MonitoringPayloads.Inc()

	writeJSON(w, http.StatusOK, metricSubmitResponse{
		Status:      "success",
		ReferenceID: record.ReferenceID,
		Timestamp:   record.Timestamp,
	})
}

// HandleQuery returns an owned machine's records, newest first.
//
// HTTP: GET /api/metrics/{mac}?start=...&end=...&limit=N
// start/end are inclusive ISO-8601 bounds; limit is clamped server-side.
func (h *MetricHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	mac := r.PathValue("mac")
	q := r.URL.Query()

	var start, end *time.Time
	if raw := q.Get("start"); raw != "" {
		t, ok := service.ParseTimestamp(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid start timestamp"})
			return
		}
		start = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, ok := service.ParseTimestamp(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid end timestamp"})
			return
		}
		end = &t
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.metrics.Query(r.Context(), claims.UserID, mac, start, end, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// HandleAggregate returns per-key min/max/average summaries over ALL of a
// machine's stored records, one per requested metric_keys value, in
// request order. No keys requested means cpu, memory, disk.
//
// HTTP: GET /api/metrics/{mac}/aggregate?metric_keys=cpu&metric_keys=disk
func (h *MetricHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	mac := r.PathValue("mac")

	keys := r.URL.Query()["metric_keys"]
	if len(keys) == 0 {
		keys = service.DefaultAggregateKeys()
	}

	aggregates, err := h.aggregates.Aggregate(r.Context(), claims.UserID, mac, keys)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, aggregates)
}
