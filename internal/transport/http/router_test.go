package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorauth/internal/intake/audit"
	"priorauth/internal/intake/handler"
	"priorauth/internal/intake/idgen"
	"priorauth/internal/intake/service"
	"priorauth/internal/intake/store"
	"priorauth/internal/platform/health"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		store.NewInMemory(),
		audit.NewRecorder(audit.NewInMemoryStore(), logger),
		idgen.New(idgen.NewMemorySequence(0)),
		service.WithLogger(logger),
	)
	return NewRouter(handler.New(svc, logger), health.New("test"), logger)
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var banner Banner
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&banner))
	assert.Equal(t, "prior-auth-api", banner.Service)
	assert.Equal(t, "running", banner.Status)
}

func TestHealthMounted(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsMounted(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitRouted(t *testing.T) {
	router := newTestRouter(t)

	body := `{"member_id":"M12345","provider_npi":"1234567890","diagnosis_code":"M54.5","requested_service":"MRI"}`
	req := httptest.NewRequest(http.MethodPost, "/prior-auth/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNonJSONBodyRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/prior-auth/submit", strings.NewReader("member_id=M12345"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
