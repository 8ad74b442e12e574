package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"
	"github.com/stockadmin/console/internal/api"
	"github.com/stockadmin/console/internal/config"
	"github.com/stockadmin/console/internal/console"
	"github.com/stockadmin/console/internal/guards"
	"github.com/stockadmin/console/internal/interceptors"
	"github.com/stockadmin/console/internal/loading"
	"github.com/stockadmin/console/internal/logger"
	"github.com/stockadmin/console/internal/navigation"
	"github.com/stockadmin/console/internal/session"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run wires the console and returns the process exit code, so deferred
// cleanup runs before main exits
func run() int {
	command := pflag.StringP("command", "c", "", "run a single command and exit")
	start := pflag.String("start", "/", "path to open at startup")
	noWait := pflag.Bool("no-wait", false, "skip waiting for the API health check")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session store, persisted in Redis when configured
	var persister session.Persister
	if cfg.Session.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Logger.Error("Failed to connect to Redis", zap.Error(err))
			return 1
		}
		persister = session.NewRedisPersister(rdb, cfg.Session.Key, cfg.Session.TTL)
	}
	sessions := session.NewManager(persister, logger.Logger)
	if err := sessions.Load(ctx); err != nil {
		logger.Logger.Warn("Failed to restore session", zap.Error(err))
	}

	// Loading indicator
	indicator := loading.NewService(logger.Logger)
	defer indicator.Close()
	updates, unsubscribe := indicator.Subscribe()
	defer unsubscribe()
	go func() {
		for visible := range updates {
			logger.Logger.Debug("Loading indicator changed", zap.Bool("visible", visible))
		}
	}()

	// Navigation
	guardSet := guards.NewSet(guards.DefaultPaths)
	navigator, err := navigation.NewNavigator(navigation.DefaultTable(guardSet), guards.DefaultPaths, sessions, logger.Logger)
	if err != nil {
		logger.Logger.Error("Failed to build navigator", zap.Error(err))
		return 1
	}

	// API client; a failed refresh sends the console back to login
	var app *console.App
	authOptions := interceptors.DefaultAuthOptions()
	authOptions.RefreshTimeout = cfg.API.RefreshTimeout
	authOptions.OnRefreshFailed = func() {
		if app != nil {
			app.SessionExpired()
		}
	}

	client := api.NewClient(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Auth:     authOptions,
		SkipList: cfg.Loading.SkipList,
	}, sessions, indicator, logger.Logger)

	app = console.NewApp(client, navigator, sessions, guards.DefaultPaths.Login, os.Stdout, logger.Logger)

	if !*noWait {
		if err := client.WaitHealthy(ctx, cfg.API.HealthMaxWait); err != nil {
			logger.Logger.Error("API is not healthy", zap.String("base_url", cfg.API.BaseURL), zap.Error(err))
			return 1
		}
	}

	if err := app.Start(*start); err != nil {
		logger.Logger.Error("Failed to open start page", zap.String("path", *start), zap.Error(err))
		return 1
	}

	if *command != "" {
		return runCommand(ctx, app, *command, logger.Logger)
	}

	if err := app.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Logger.Error("Console stopped", zap.Error(err))
		return 1
	}
	return 0
}

// runCommand executes a single command line and maps its outcome to an exit code
func runCommand(ctx context.Context, app *console.App, line string, logger *zap.Logger) int {
	if err := app.Execute(ctx, strings.Fields(line)); err != nil && !errors.Is(err, console.ErrQuit) {
		logger.Error("Command failed", zap.String("command", line), zap.Error(err))
		return 1
	}
	return 0
}
