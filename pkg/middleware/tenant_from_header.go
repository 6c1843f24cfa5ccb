package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/httpapi"
)

// RequireOrganization resolves the tenant from the given header and rejects
// requests that carry none.
func RequireOrganization(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			orgID, err := uuid.Parse(raw)
			if raw == "" || err != nil || orgID == uuid.Nil {
				if logger := composables.UseLogger(r.Context()); logger != nil {
					logger.WithField("header", header).Warn("request without a valid organization")
				}
				_ = httpapi.WriteError(w, http.StatusBadRequest, "FREIGHT_NO_AUTH_CONTEXT", "organization header is missing or invalid", map[string]string{
					"header": header,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithTenantID(r.Context(), orgID)))
		})
	}
}
