package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"sabohub/internal/config"
	"sabohub/internal/controllers"
	"sabohub/internal/logger"
	"sabohub/internal/middleware"
	"sabohub/internal/repository"
	"sabohub/internal/routes"
	"sabohub/internal/services"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg, logger.NewGormLogger())
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := config.Migrate(db); err != nil {
			return err
		}
		logrus.Info("Database migrated")
	}

	hub := controllers.NewLocationHub()
	defer hub.Close()

	jwt := middleware.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	router := routes.SetupRouter(buildHandlers(db, jwt, hub), jwt)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.EnableCORS(cfg.CORSOrigins, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// buildHandlers wires repositories into services and services into controllers.
func buildHandlers(db *gorm.DB, jwt *middleware.JWT, hub *controllers.LocationHub) routes.Handlers {
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	optimizationRepo := repository.NewOptimizationRepository(db)
	journeyRepo := repository.NewJourneyRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	authSvc := services.NewAuthService(userRepo, companyRepo, jwt)
	customerSvc := services.NewCustomerService(customerRepo)
	routeSvc := services.NewRouteService(routeRepo, customerRepo, userRepo)
	optimizationSvc := services.NewOptimizationService(routeRepo, optimizationRepo)
	journeySvc := services.NewJourneyService(routeRepo, journeyRepo, locationRepo, userRepo)
	locationSvc := services.NewLocationService(locationRepo, journeyRepo, hub)
	performanceSvc := services.NewPerformanceService(routeRepo, journeyRepo)

	return routes.Handlers{
		Auth:          controllers.NewAuthController(authSvc),
		Customers:     controllers.NewCustomerController(customerSvc),
		Routes:        controllers.NewRouteController(routeSvc, performanceSvc),
		Optimizations: controllers.NewOptimizationController(optimizationSvc),
		Journeys:      controllers.NewJourneyController(journeySvc, locationSvc),
		Locations:     controllers.NewLocationController(locationSvc),
		Hub:           hub,
		Health:        controllers.NewHealthController(db),
	}
}
