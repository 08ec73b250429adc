package scoringhandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/marathon-draft/app/httpapi"
	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScoringHandlers serves the scoring endpoints and consumes results events.
type ScoringHandlers struct {
	service scoringservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewScoringHandlers creates a new ScoringHandlers instance.
func NewScoringHandlers(service scoringservice.Service, logger *slog.Logger, tracer trace.Tracer) *ScoringHandlers {
	return &ScoringHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes registers the scoring endpoints.
func (h *ScoringHandlers) Routes(r chi.Router) {
	r.Post("/api/competitions/{competitionID}/results", h.HandleSubmitResults)
	r.Get("/api/competitions/{competitionID}/scores", h.HandleListScores)
	r.Get("/api/competitions/{competitionID}/scores.xlsx", h.HandleExportScores)
	r.Get("/api/competitions/{competitionID}/standings", h.HandleStandings)
	r.Get("/api/competitions/{competitionID}/standings.png", h.HandleStandingsChart)
	r.Post("/api/competitions/{competitionID}/records/confirm", h.HandleConfirmRecord)
}

// SubmitResultsRequest is the body of POST /results.
type SubmitResultsRequest struct {
	Results []scoringdomain.RaceResult `json:"results"`
}

// ConfirmRecordRequest is the body of POST /records/confirm.
type ConfirmRecordRequest struct {
	CompetitorID string `json:"competitor_id"`
	RecordType   string `json:"record_type"`
}

func (h *ScoringHandlers) HandleSubmitResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req SubmitResultsRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.ScoreRace(ctx, competitionID, req.Results)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	if res.IsFailure() {
		h.writeFailure(w, *res.Failure)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res.Success)
}

func (h *ScoringHandlers) HandleConfirmRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req ConfirmRecordRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if req.CompetitorID == "" || req.RecordType == "" {
		httpapi.WriteError(w, http.StatusBadRequest, errors.New("competitor_id and record_type are required"))
		return
	}

	res, err := h.service.ConfirmRecord(ctx, competitionID, req.CompetitorID, req.RecordType)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	if res.IsFailure() {
		h.writeFailure(w, *res.Failure)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res.Success)
}

func (h *ScoringHandlers) HandleListScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	breakdowns, err := h.service.ListBreakdowns(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, breakdowns)
}

func (h *ScoringHandlers) HandleStandings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	standings, err := h.service.Standings(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, standings)
}

func (h *ScoringHandlers) HandleStandingsChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	img, err := h.service.StandingsChart(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	writeBinary(w, "image/png", "", img)
}

func (h *ScoringHandlers) HandleExportScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	data, err := h.service.ExportXLSX(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	writeBinary(w, xlsxContentType, fmt.Sprintf("scores-%s.xlsx", competitionID), data)
}

func writeBinary(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ScoringHandlers) writeFailure(w http.ResponseWriter, failure error) {
	var rejected *scoringservice.RejectedResultsError
	if errors.As(failure, &rejected) {
		httpapi.WriteErrorDetails(w, http.StatusUnprocessableEntity, failure, rejected.Rejections)
		return
	}
	httpapi.WriteError(w, failureStatus(failure), failure)
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, scoringservice.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, scoringservice.ErrNotScored):
		return http.StatusNotFound
	case errors.Is(err, scoringservice.ErrRecordNotClaimed):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
