// Package httputil centralizes JSON encoding/decoding and domain error
// translation for the HTTP transport layer.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "priorauth/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// DecodeJSON decodes a JSON request body into the target type.
// Returns the decoded value and true on success.
// On failure, writes an error response and returns nil, false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Fields           []string `json:"fields,omitempty"`
}

// FieldsProvider is implemented by errors that carry a machine-readable
// list of violated fields (schema validation failures).
type FieldsProvider interface {
	ViolatedFields() []string
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and
// error envelopes. Unknown errors fall back to 500.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := ErrorResponse{Error: string(domainErr.Code)}
		if domainErr.Message != "" {
			response.ErrorDescription = domainErr.Message
		}
		var fp FieldsProvider
		if errors.As(err, &fp) {
			response.Fields = fp.ViolatedFields()
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: string(dErrors.CodeInternal),
	})
}

// StatusFor resolves the HTTP status for any error, falling back to 500 for
// errors that are not domain errors.
func StatusFor(err error) int {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return DomainCodeToHTTPStatus(domainErr.Code)
	}
	return http.StatusInternalServerError
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// Schema failures map to 422 and business rule failures to 400 so callers
// can tell the two rejection classes apart.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeBusinessRule:
		return http.StatusBadRequest
	case dErrors.CodeSchemaValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict, dErrors.CodeDuplicateIdentifier:
		return http.StatusConflict
	case dErrors.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeIDGeneration, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
