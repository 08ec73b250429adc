package rosterhandlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Black-And-White-Club/marathon-draft/app/httpapi"
	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// maxUploadBytes caps price list uploads.
const maxUploadBytes = 10 << 20

// RosterHandlers serves competition, price list and roster endpoints.
type RosterHandlers struct {
	service rosterservice.Service
	logger  *slog.Logger
}

// NewRosterHandlers creates a new RosterHandlers instance.
func NewRosterHandlers(service rosterservice.Service, logger *slog.Logger) *RosterHandlers {
	return &RosterHandlers{service: service, logger: logger}
}

// Routes mounts the roster endpoints.
func (h *RosterHandlers) Routes(r chi.Router) {
	const competition = "/api/competitions/{competitionID}"
	const roster = "/api/rosters/{rosterID}"

	r.Post("/api/competitions", h.HandleCreateCompetition)
	r.Get(competition+"/competitors", h.HandleListCompetitors)
	r.Put(competition+"/competitors", h.HandleUpsertCompetitors)
	r.Post(competition+"/competitors.xlsx", h.HandleImportPriceList)
	r.Post(competition+"/rosters", h.HandleCreateRoster)
	r.Post(competition+"/rosters/validate", h.HandleValidateRoster)

	r.Get(roster, h.HandleGetRoster)
	r.Get(roster+"/editability", h.HandleEditability)
	r.Post(roster+"/selection-check", h.HandleSelectionCheck)
	r.Put(roster+"/autosave", h.HandleAutosave)
	r.Post(roster+"/submit", h.HandleSubmit)
	r.Post(roster+"/edit", h.HandleBeginEdit)
}

type createCompetitionRequest struct {
	Name      string `json:"name"`
	SalaryCap int64  `json:"salary_cap"`
}

type createRosterRequest struct {
	OwnerID string `json:"owner_id"`
}

type picksRequest struct {
	Slots []rosterservice.SlotPick `json:"slots"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *RosterHandlers) HandleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.CreateCompetition(r.Context(), req.Name, req.SalaryCap)
	respond(h, w, r, http.StatusCreated, res, err)
}

func (h *RosterHandlers) HandleListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.ListCompetitors(r.Context(), competitionID)
	respond(h, w, r, http.StatusOK, res, err)
}

func (h *RosterHandlers) HandleUpsertCompetitors(w http.ResponseWriter, r *http.Request) {
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Competitors []rosterdomain.Competitor `json:"competitors"`
	}
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.UpsertCompetitors(r.Context(), competitionID, req.Competitors)
	respond(h, w, r, http.StatusOK, results.Map(res, func(n int) countResponse { return countResponse{Count: n} }), err)
}

// HandleImportPriceList accepts the workbook either as the raw body or as
// the "file" part of a multipart form.
func (h *RosterHandlers) HandleImportPriceList(w http.ResponseWriter, r *http.Request) {
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var src io.Reader = body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, err)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, err)
			return
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(src)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.ImportPriceList(r.Context(), competitionID, data)
	respond(h, w, r, http.StatusOK, results.Map(res, func(n int) countResponse { return countResponse{Count: n} }), err)
}

func (h *RosterHandlers) HandleCreateRoster(w http.ResponseWriter, r *http.Request) {
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req createRosterRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.CreateRoster(r.Context(), competitionID, req.OwnerID)
	respond(h, w, r, http.StatusCreated, res, err)
}

func (h *RosterHandlers) HandleValidateRoster(w http.ResponseWriter, r *http.Request) {
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req picksRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.ValidateRoster(r.Context(), competitionID, req.Slots)
	respond(h, w, r, http.StatusOK, results.Map(res, rosterservice.NewReportView), err)
}

func (h *RosterHandlers) HandleGetRoster(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.GetRoster(r.Context(), rosterID)
	respond(h, w, r, http.StatusOK, res, err)
}

func (h *RosterHandlers) HandleEditability(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.Editability(r.Context(), rosterID)
	respond(h, w, r, http.StatusOK, res, err)
}

func (h *RosterHandlers) HandleSelectionCheck(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req rosterservice.SlotPick
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.CheckSelection(r.Context(), rosterID, req.SlotID, req.CompetitorID)
	respond(h, w, r, http.StatusOK, res, err)
}

func (h *RosterHandlers) HandleAutosave(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req picksRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.Autosave(r.Context(), rosterID, req.Slots)
	respond(h, w, r, http.StatusOK, res, err)
}

// HandleSubmit submits the stored roster, or the body's slots when a body
// is sent.
func (h *RosterHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var picks []rosterservice.SlotPick
	if r.ContentLength != 0 {
		var req picksRequest
		if err := httpapi.DecodeJSON(w, r, &req); err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, err)
			return
		}
		picks = req.Slots
	}
	res, err := h.service.Submit(r.Context(), rosterID, picks)
	respond(h, w, r, http.StatusOK, res, err)
}

func (h *RosterHandlers) HandleBeginEdit(w http.ResponseWriter, r *http.Request) {
	rosterID, err := httpapi.UUIDParam(r, "rosterID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.service.BeginEdit(r.Context(), rosterID)
	respond(h, w, r, http.StatusOK, res, err)
}

// respond writes a service outcome. Infrastructure errors become a bare 500.
func respond[S any](h *RosterHandlers, w http.ResponseWriter, r *http.Request, status int, res results.OperationResult[S, error], err error) {
	if err != nil {
		httpapi.WriteInternal(r.Context(), h.logger, w, err)
		return
	}
	if res.IsFailure() {
		failure := *res.Failure
		var invalid *rosterservice.InvalidRosterError
		if errors.As(failure, &invalid) {
			httpapi.WriteErrorDetails(w, http.StatusUnprocessableEntity, failure, rosterservice.NewReportView(invalid.Report))
			return
		}
		httpapi.WriteError(w, failureStatus(failure), failure)
		return
	}
	httpapi.WriteJSON(w, status, res.Success)
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, rosterdb.ErrRosterNotFound), errors.Is(err, rosterdb.ErrCompetitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, rosterdb.ErrRosterExists),
		errors.Is(err, rosterservice.ErrAutosaveNotAllowed),
		errors.Is(err, lockdomain.ErrLocked),
		errors.Is(err, lockdomain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
