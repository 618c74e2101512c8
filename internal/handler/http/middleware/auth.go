package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired accepts only verified access tokens that carry a company scope.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if tokenType != "access" || !ok {
			response.Unauthorized(w, "Invalid token")
			return
		}

		if _, _, err := jwt.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
