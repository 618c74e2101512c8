package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole allows the request through when the token role is one of roles.
func RequireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			for _, role := range roles {
				if jwt.Role(roleStr) == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' is not allowed", roleStr))
		})
	}
}

// RequirePayrollManager allows owners, managers and payroll staff.
func RequirePayrollManager(next http.Handler) http.Handler {
	return RequireRole(jwt.RoleOwner, jwt.RoleManager, jwt.RolePayroll)(next)
}
