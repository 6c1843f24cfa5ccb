package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/constants"
	"github.com/iota-uz/iota-freight/pkg/httpapi"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWithLogger_AttachesRequestScope(t *testing.T) {
	var gotID string
	var gotLogger *logrus.Entry
	h := WithLogger(quietLogger(), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = composables.UseRequestID(r.Context())
		gotLogger = composables.UseLogger(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/freight/api/loads:held", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "req-1", gotID)
	require.Equal(t, "req-1", rr.Header().Get("X-Request-Id"))
	require.NotNil(t, gotLogger)
	require.Equal(t, "req-1", gotLogger.Data["request-id"])
}

func TestWithLogger_GeneratesRequestID(t *testing.T) {
	var gotID string
	h := WithLogger(quietLogger(), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = composables.UseRequestID(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(gotID)
	require.NoError(t, err)
}

func TestWithLogger_RecoversPanic(t *testing.T) {
	h := WithLogger(quietLogger(), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodPost, "/freight/api/loads/x/hold", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "INTERNAL_SERVER_ERROR", env.Code)
	require.Equal(t, "req-panic", env.Meta["request_id"])
}

func TestRequireOrganization(t *testing.T) {
	orgID := uuid.New()
	var got uuid.UUID
	h := RequireOrganization("X-Organization-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = composables.UseTenantID(r.Context())
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Organization-ID", orgID.String())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, orgID, got)

	for _, raw := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Organization-ID", raw)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code, raw)
		require.Contains(t, rr.Body.String(), "FREIGHT_NO_AUTH_CONTEXT")
	}
}

func TestProvide(t *testing.T) {
	var got any
	h := Provide(constants.AppKey, "app")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(constants.AppKey)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "app", got)
}

func TestRateLimit(t *testing.T) {
	_, err := RateLimit(RateLimitConfig{Rate: "garbage"})
	require.Error(t, err)

	mw, err := RateLimit(RateLimitConfig{Rate: "1-M"})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(mw)
	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodGet)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil).WithContext(context.Background())
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(second, req)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestCors_Preflight(t *testing.T) {
	h := Cors("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/freight/api/loads:held", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
