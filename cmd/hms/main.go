package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/hms/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("hms: %v", err)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zl.Warn("shutting down tracer", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zl.Warn("closing database", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zl); err != nil {
		return err
	}

	hasher, err := auth.NewPasswordHasher(cfg.Password.BcryptCost)
	if err != nil {
		return err
	}
	if _, err := database.SeedAdmin(ctx, db, cfg.Seed, hasher, zl); err != nil {
		return err
	}

	m := metrics.NewCollector(cfg.App.Name, prometheus.DefaultRegisterer)
	audit := service.NewAuditService(repository.NewAuditRepository(db), m, zl)
	defer audit.Shutdown()

	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	doctors := repository.NewDoctorRepository(db)
	appts := repository.NewAppointmentRepository(db)

	store, err := v1.NewSessionStore(cfg.Session, db, true)
	if err != nil {
		return err
	}

	router, err := v1.NewRouter(v1.Deps{
		Config:       cfg,
		Auth:         service.NewAuthService(users, doctors, hasher, auth.NewJWTManager(cfg.JWT), audit, m, zl),
		Registration: service.NewRegistrationService(tx, users, doctors, hasher, audit, m, zl),
		Admin:        service.NewAdminService(tx, users, doctors, appts, hasher, cfg.Appointment, audit, m, zl),
		Patients:     service.NewPatientService(doctors, appts, audit, m, zl),
		Doctors:      service.NewDoctorService(appts, audit, m, zl),
		Metrics:      m,
		Gatherer:     prometheus.DefaultGatherer,
		Sessions:     store,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Log: zl,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	zl.Info("server stopped")
	return nil
}
