package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// UUIDParam rejects requests whose URL parameter name is not a UUIDv7.
func UUIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validator.IsValidUUID(chi.URLParam(r, name)) {
				response.BadRequest(w, "Invalid "+name+" parameter", map[string]string{
					name: "must be a valid UUID",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
