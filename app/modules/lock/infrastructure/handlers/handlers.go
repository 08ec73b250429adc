package lockhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/marathon-draft/app/httpapi"
	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
)

// LockHandlers serves the competition lock endpoints.
type LockHandlers struct {
	service lockservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLockHandlers creates a new LockHandlers instance.
func NewLockHandlers(service lockservice.Service, logger *slog.Logger, tracer trace.Tracer) *LockHandlers {
	return &LockHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes registers the lock endpoints.
func (h *LockHandlers) Routes(r chi.Router) {
	r.Get("/api/competitions/{competitionID}/lock", h.HandleGetLock)
	r.Put("/api/competitions/{competitionID}/lock", h.HandleScheduleLock)
	r.Post("/api/competitions/{competitionID}/finalize", h.HandleFinalize)
}

// ScheduleLockRequest is the body of PUT /lock.
type ScheduleLockRequest struct {
	At       string `json:"at"`
	Timezone string `json:"timezone,omitempty"`
}

func (h *LockHandlers) HandleGetLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.Status(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	h.writeResult(w, res)
}

func (h *LockHandlers) HandleScheduleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req ScheduleLockRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.ScheduleLock(ctx, competitionID, req.At, req.Timezone)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	h.writeResult(w, res)
}

func (h *LockHandlers) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	competitionID, err := httpapi.UUIDParam(r, "competitionID")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.FinalizeResults(ctx, competitionID)
	if err != nil {
		httpapi.WriteInternal(ctx, h.logger, w, err)
		return
	}
	h.writeResult(w, res)
}

func (h *LockHandlers) writeResult(w http.ResponseWriter, res lockservice.LockResult) {
	if res.IsFailure() {
		failure := *res.Failure
		httpapi.WriteError(w, failureStatus(failure), failure)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res.Success)
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, lockservice.ErrAlreadyLocked):
		return http.StatusConflict
	case errors.Is(err, locktime.ErrLockInPast),
		errors.Is(err, locktime.ErrEmptyInput),
		errors.Is(err, locktime.ErrUnrecognizedTime),
		errors.Is(err, locktime.ErrInvalidTimezone):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
