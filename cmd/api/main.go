package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-mx/internal/handler/http"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/cache"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-mx/internal/repository/postgresql"
	contractService "github.com/cmlabs-hris/payroll-mx/internal/service/contract"
	movementService "github.com/cmlabs-hris/payroll-mx/internal/service/movement"
	payrollService "github.com/cmlabs-hris/payroll-mx/internal/service/payroll"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	jobsOnce := flag.Bool("jobs-once", false, "run the contract jobs once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("error running migrations: %w", err)
		}
	}

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	redisClient := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient != nil {
		defer redisClient.Close()
	}
	settingsCache := cache.NewSettingsCache(redisClient, cfg.Payroll.SettingsCacheTTL)

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	contractRepo := postgresql.NewContractRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	movementRepo := postgresql.NewMovementRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	inputCollector := movementService.NewInputCollector(movementRepo)
	contractSvc := contractService.NewContractService(transactor, contractRepo)
	payrollSvc := payrollService.NewPayrollService(transactor, payrollRepo, contractRepo, employeeRepo, inputCollector, settingsCache)
	movementSvc := movementService.NewMovementService(transactor, movementRepo, contractRepo, payrollRepo, payrollSvc)

	scheduler := cron.NewScheduler()
	cron.NewContractJobs(contractSvc, location).RegisterJobs(scheduler, cfg.Payroll.CronInterval)
	if *jobsOnce {
		return scheduler.RunOnce(ctx)
	}

	contractHandler := appHTTP.NewContractHandler(contractSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	movementHandler := appHTTP.NewMovementHandler(movementSvc)

	router, err := appHTTP.NewRouter(cfg, JWTService, contractHandler, payrollHandler, movementHandler)
	if err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
