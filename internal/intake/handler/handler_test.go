package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"priorauth/internal/intake/audit"
	"priorauth/internal/intake/idgen"
	"priorauth/internal/intake/models"
	"priorauth/internal/intake/service"
	"priorauth/internal/intake/store"
	"priorauth/pkg/httputil"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
	svc    *service.Service
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), logger)
	s.svc = service.New(
		store.NewInMemory(),
		recorder,
		idgen.New(idgen.NewMemorySequence(0)),
		service.WithLogger(logger),
		service.WithSimulatedTimeout(10*time.Millisecond),
	)

	s.router = chi.NewRouter()
	New(s.svc, logger).Register(s.router)
}

func (s *HandlerSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, target any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(target))
}

func validSubmission() models.Submission {
	return models.Submission{
		MemberID:         "M12345",
		ProviderNPI:      "1234567890",
		DiagnosisCode:    "M54.5",
		RequestedService: "MRI Lumbar Spine",
	}
}

func (s *HandlerSuite) TestSubmitCreated() {
	rec := s.request(http.MethodPost, "/prior-auth/submit", validSubmission())
	s.Equal(http.StatusCreated, rec.Code)

	// The response carries the full persisted record, not just the id.
	var response SubmitResponse
	s.decode(rec, &response)
	s.Equal("PA-00001", response.ID)
	s.Equal(models.StatusPending, response.Status)
	s.Equal("M12345", response.MemberID)
	s.Equal("1234567890", response.ProviderNPI)
	s.Equal("M54.5", response.DiagnosisCode)
	s.Equal("MRI Lumbar Spine", response.RequestedService)
	s.False(response.CreatedAt.IsZero())
	s.NotEmpty(response.Message)
}

func (s *HandlerSuite) TestSubmitSchemaFailureIs422() {
	sub := validSubmission()
	sub.MemberID = ""
	sub.DiagnosisCode = ""

	rec := s.request(http.MethodPost, "/prior-auth/submit", sub)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var response httputil.ErrorResponse
	s.decode(rec, &response)
	s.Equal("schema_validation_failed", response.Error)
	s.Equal([]string{"member_id", "diagnosis_code"}, response.Fields)
}

func (s *HandlerSuite) TestSubmitBusinessFailureIs400() {
	sub := validSubmission()
	sub.ProviderNPI = "12345678AB"

	rec := s.request(http.MethodPost, "/prior-auth/submit", sub)
	s.Equal(http.StatusBadRequest, rec.Code)

	var response httputil.ErrorResponse
	s.decode(rec, &response)
	s.Equal("business_rule_violation", response.Error)
}

func (s *HandlerSuite) TestSubmitMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/prior-auth/submit", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetRequest() {
	created, err := s.svc.Submit(context.Background(), validSubmission())
	s.Require().NoError(err)

	rec := s.request(http.MethodGet, "/prior-auth/requests/"+created.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	var request models.Request
	s.decode(rec, &request)
	s.Equal(created.ID, request.ID)
	s.Equal("M12345", request.MemberID)
}

func (s *HandlerSuite) TestGetUnknownRequestIs404() {
	rec := s.request(http.MethodGet, "/prior-auth/requests/PA-99999", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListNewestFirst() {
	_, err := s.svc.Submit(context.Background(), validSubmission())
	s.Require().NoError(err)
	second, err := s.svc.Submit(context.Background(), validSubmission())
	s.Require().NoError(err)

	rec := s.request(http.MethodGet, "/prior-auth/requests", nil)
	s.Equal(http.StatusOK, rec.Code)

	var response ListResponse
	s.decode(rec, &response)
	s.Equal(2, response.Count)
	s.Equal(second.ID, response.Requests[0].ID)
}

func (s *HandlerSuite) TestLogsForRequest() {
	created, err := s.svc.Submit(context.Background(), validSubmission())
	s.Require().NoError(err)

	rec := s.request(http.MethodGet, "/prior-auth/requests/"+created.ID+"/logs", nil)
	s.Equal(http.StatusOK, rec.Code)

	var response LogsResponse
	s.decode(rec, &response)
	s.Equal(created.ID, response.RequestID)
	s.Equal(4, response.Count)
	s.Equal(audit.EventRequestReceived, response.Events[0].Type)
	s.Equal(audit.EventStatusPending, response.Events[3].Type)
}

func (s *HandlerSuite) TestLogsUnknownIDIsEmptyTrail() {
	rec := s.request(http.MethodGet, "/prior-auth/requests/PA-04242/logs", nil)
	s.Equal(http.StatusOK, rec.Code)

	var response LogsResponse
	s.decode(rec, &response)
	s.Zero(response.Count)
	s.Empty(response.Events)
}

func (s *HandlerSuite) TestTestErrorDatabaseTimeout() {
	rec := s.request(http.MethodPost, "/prior-auth/test/errors", TestErrorRequest{ErrorType: "database_timeout"})
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	var response TestErrorResponse
	s.decode(rec, &response)
	s.Equal("store_unavailable", response.Error)
	s.Regexp(`^ERROR-\d+$`, response.ErrorID)
}

func (s *HandlerSuite) TestTestErrorValidation() {
	rec := s.request(http.MethodPost, "/prior-auth/test/errors", TestErrorRequest{ErrorType: "validation_error"})
	s.Equal(http.StatusBadRequest, rec.Code)

	var response TestErrorResponse
	s.decode(rec, &response)
	s.Regexp(`^ERROR-\d+$`, response.ErrorID)
}

func (s *HandlerSuite) TestTestErrorUnknownType() {
	rec := s.request(http.MethodPost, "/prior-auth/test/errors", TestErrorRequest{ErrorType: "disk_full"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}
