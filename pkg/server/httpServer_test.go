package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type pingController struct{}

func (pingController) Key() string { return "/ping" }
func (pingController) Register(r *mux.Router) {
	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("pong ", 400)))
	}).Methods(http.MethodGet)
}

func newTestServer(trace *[]string) *HTTPServer {
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	return &HTTPServer{
		Controllers:             nil,
		Middlewares:             []mux.MiddlewareFunc{mw},
		NotFoundHandler:         jsonStatus(http.StatusNotFound, "NOT_FOUND", "route not found"),
		MethodNotAllowedHandler: jsonStatus(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"),
	}
}

func TestRouter_NotFoundRunsMiddleware(t *testing.T) {
	var trace []string
	s := newTestServer(&trace)
	s.Controllers = append(s.Controllers, pingController{})

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "NOT_FOUND")
	require.Equal(t, []string{"/missing"}, trace)

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/ping", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandler_Gzip(t *testing.T) {
	var trace []string
	s := newTestServer(&trace)
	s.Controllers = append(s.Controllers, pingController{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "pong pong"))
}
