package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stockadmin/console/internal/config"
	"github.com/stockadmin/console/internal/logger"
	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/server"
	"github.com/stockadmin/console/internal/server/scheduler"
	"go.uber.org/zap"
)

// @title Stock Dev API
// @version 1.0
// @description Development backend for the stock console
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Stock Dev API")

	// Connect to database
	db, err := server.ConnectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := server.RunMigrations(db, cfg.Migrations); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	app := server.New(db, cfg, logger.Logger)

	if cfg.Seed.AdminEmail != "" {
		created, err := app.Seeder.EnsureUser(context.Background(), cfg.Seed.AdminEmail, "Administrator", cfg.Seed.AdminPassword, models.RoleAdmin)
		if err != nil {
			logger.Logger.Fatal("Failed to seed administrator", zap.Error(err))
		}
		if created {
			logger.Logger.Info("Seeded administrator", zap.String("email", cfg.Seed.AdminEmail))
		}
	}

	// Start token cleanup
	cleanup, err := scheduler.New(cfg.TokenCleanupSchedule, app.TokenCleaner, cfg.JWT.RefreshTokenExpiry, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	cleanup.Start()
	defer cleanup.Stop()

	// Start server
	srv := server.NewHTTPServer(cfg.HTTP.Port, app.Router)

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
