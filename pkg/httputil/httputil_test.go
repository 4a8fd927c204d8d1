package httputil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "priorauth/pkg/domain-errors"
)

type fieldsError struct {
	err    *dErrors.Error
	fields []string
}

func (e *fieldsError) Error() string { return e.err.Error() }

func (e *fieldsError) Unwrap() error { return e.err }

func (e *fieldsError) ViolatedFields() []string { return e.fields }

func TestWriteErrorSchemaVsBusiness(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeSchemaValidation, "member_id is required"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeBusinessRule, "provider_npi must contain only digits"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &fieldsError{
		err:    &dErrors.Error{Code: dErrors.CodeSchemaValidation, Message: "missing fields"},
		fields: []string{"member_id", "diagnosis_code"},
	})

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"member_id", "diagnosis_code"}, resp.Fields)
	assert.Equal(t, "schema_validation_failed", resp.Error)
}

func TestWriteErrorUnknownFallsBackTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDecodeJSONInvalidBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	type payload struct {
		Name string `json:"name"`
	}
	decoded, ok := DecodeJSON[payload](rec, req, logger, "req-1")
	assert.False(t, ok)
	assert.Nil(t, decoded)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:            http.StatusNotFound,
		dErrors.CodeDuplicateIdentifier: http.StatusConflict,
		dErrors.CodeStoreUnavailable:    http.StatusServiceUnavailable,
		dErrors.CodeIDGeneration:        http.StatusInternalServerError,
		dErrors.CodeTimeout:             http.StatusGatewayTimeout,
	}
	for code, want := range cases {
		assert.Equal(t, want, DomainCodeToHTTPStatus(code), string(code))
	}
}
