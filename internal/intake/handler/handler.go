// Package handler exposes the intake pipeline over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"priorauth/internal/intake/audit"
	"priorauth/internal/intake/models"
	"priorauth/internal/intake/service"
	"priorauth/internal/platform/middleware"
	dErrors "priorauth/pkg/domain-errors"
	"priorauth/pkg/httputil"
)

// Handler serves the prior authorization intake endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates the intake HTTP handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the intake routes under /prior-auth.
func (h *Handler) Register(r chi.Router) {
	r.Route("/prior-auth", func(r chi.Router) {
		r.Post("/submit", h.HandleSubmit)
		r.Get("/requests", h.HandleList)
		r.Get("/requests/{requestID}", h.HandleGet)
		r.Get("/requests/{requestID}/logs", h.HandleLogs)
		r.Post("/test/errors", h.HandleTestError)
	})
}

// SubmitResponse acknowledges an accepted submission with the full
// persisted record.
type SubmitResponse struct {
	models.Request
	Message string `json:"message"`
}

// ListResponse wraps the request listing.
type ListResponse struct {
	Requests []*models.Request `json:"requests"`
	Count    int               `json:"count"`
}

// LogsResponse wraps the audit trail of one request.
type LogsResponse struct {
	RequestID string        `json:"request_id"`
	Events    []audit.Event `json:"events"`
	Count     int           `json:"count"`
}

// TestErrorRequest names the failure condition to trigger.
type TestErrorRequest struct {
	ErrorType string `json:"error_type"`
}

// TestErrorResponse reports a triggered failure with its correlation id.
type TestErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorID          string `json:"error_id,omitempty"`
}

// HandleSubmit accepts a new prior authorization request.
// POST /prior-auth/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, ok := httputil.DecodeJSON[models.Submission](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}

	request, err := h.svc.Submit(ctx, *sub)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{
		Request: *request,
		Message: "prior authorization request submitted",
	})
}

// HandleList returns recent requests, newest first.
// GET /prior-auth/requests
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Requests: requests, Count: len(requests)})
}

// HandleGet returns one request by identifier.
// GET /prior-auth/requests/{requestID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	request, err := h.svc.Get(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

// HandleLogs returns the ordered audit trail for a request id. The id does
// not have to belong to a persisted request; an unknown id yields an empty
// trail.
// GET /prior-auth/requests/{requestID}/logs
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	events, err := h.svc.Events(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LogsResponse{
		RequestID: requestID,
		Events:    events,
		Count:     len(events),
	})
}

// HandleTestError deliberately triggers a named failure condition so the
// resulting traces, metrics, and audit events can be observed end to end.
// POST /prior-auth/test/errors
func (h *Handler) HandleTestError(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[TestErrorRequest](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}

	errorID, err := h.svc.TriggerError(ctx, req.ErrorType)
	if err == nil {
		// TriggerError fails by contract; anything else is a bug.
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "test error did not trigger"))
		return
	}

	var domainErr *dErrors.Error
	response := TestErrorResponse{Error: string(dErrors.CodeInternal), ErrorID: errorID}
	if errors.As(err, &domainErr) {
		response.Error = string(domainErr.Code)
		response.ErrorDescription = domainErr.Message
	}
	httputil.WriteJSON(w, httputil.StatusFor(err), response)
}
