package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-mx/internal/config"
	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, contractHandler ContractHandler, payrollHandler PayrollHandler, movementHandler MovementHandler) (*chi.Mux, error) {
	rateLimit, err := middleware.RateLimit(cfg.Payroll.RateLimit)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-mx"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	allowedOrigins := cfg.App.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(rateLimit)

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequirePayrollManager)

			r.Route("/contracts/{id}", func(r chi.Router) {
				r.Use(middleware.UUIDParam("id"))
				r.Post("/base", contractHandler.UpdateBase)
				r.Put("/wage", contractHandler.UpdateWage)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/settings", payrollHandler.GetSettings)
				r.Put("/settings", payrollHandler.UpdateSettings)

				r.Post("/runs", payrollHandler.GenerateBatch)

				r.Route("/payslips/{id}", func(r chi.Router) {
					r.Use(middleware.UUIDParam("id"))
					r.Get("/", payrollHandler.GetPayslip)
					r.Post("/compute", payrollHandler.ComputePayslip)
					r.Get("/imss/{kind}", payrollHandler.ComputeContribution)
					r.Put("/hide-rule", payrollHandler.ToggleHideRule)
				})
			})

			r.Route("/movements/{kind}", func(r chi.Router) {
				r.Post("/", movementHandler.Create)
				r.With(middleware.UUIDParam("id")).Post("/{id}/{action}", movementHandler.Transition)
				r.With(middleware.UUIDParam("id")).Delete("/{id}", movementHandler.Delete)
			})
		})
	})
	return r, nil
}
