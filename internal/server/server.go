// Package server assembles the development API of the stock console
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stockadmin/console/internal/config"
	"github.com/stockadmin/console/internal/metrics"
	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/server/auth"
	"github.com/stockadmin/console/internal/server/handlers"
	"github.com/stockadmin/console/internal/server/middleware"
	"github.com/stockadmin/console/internal/server/repositories"
	"github.com/stockadmin/console/internal/server/scheduler"
	"github.com/stockadmin/console/internal/server/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// UserSeeder creates users that must exist, e.g. the first administrator
type UserSeeder interface {
	// Method EnsureUser creates the user unless the email is registered and reports whether it did.
	EnsureUser(ctx context.Context, email, name, password string, role models.Role) (bool, error)
}

// App is the wired development API
type App struct {
	Router       chi.Router
	Seeder       UserSeeder
	TokenCleaner scheduler.TokenCleaner
}

// New wires repositories, services and handlers on top of db
func New(db *sql.DB, cfg *config.ServerConfig, logger *zap.Logger) *App {
	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	productRepo := repositories.NewProductRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	movementRepo := repositories.NewMovementRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, logger)
	inventoryService := services.NewInventoryService(productRepo, categoryRepo, movementRepo, logger)
	adminService := services.NewAdminService(userRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	managerMiddleware := middleware.RoleMiddleware(tokenGenerator, models.RoleAdmin, models.RoleManager)
	adminMiddleware := middleware.RoleMiddleware(tokenGenerator, models.RoleAdmin)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.HTTP.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitPerMinute, time.Minute))
	}
	if cfg.HTTP.MaxRequestSize > 0 {
		r.Use(middleware.RequestSizeLimitMiddleware(cfg.HTTP.MaxRequestSize))
	}

	// Prometheus metrics
	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation, generated into docs/ by swag init
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Scope router to /api
	r.Route("/api", func(r chi.Router) {
		healthHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r)
		inventoryHandler.RegisterRoutes(r, authMiddleware, managerMiddleware)
		// Register admin routes with role middleware
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			adminHandler.RegisterRoutes(r)
		})
	})

	return &App{
		Router:       r,
		Seeder:       adminService,
		TokenCleaner: authService,
	}
}

// NewHTTPServer creates the HTTP server for handler
func NewHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ConnectDB connects to the database
func ConnectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunMigrations runs database migrations from migrationPath ("file://..." URL)
func RunMigrations(db *sql.DB, migrationPath string) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "stock_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Fall back to the module root when started from cmd/devapi
	if dir := strings.TrimPrefix(migrationPath, "file://"); dir == "migrations" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if _, err := os.Stat("../../migrations"); err == nil {
				migrationPath = "file://../../migrations"
			}
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
