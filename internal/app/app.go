package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/engagebot/internal/chat"
	"github.com/sundayezeilo/engagebot/internal/config"
	"github.com/sundayezeilo/engagebot/internal/docstore"
	"github.com/sundayezeilo/engagebot/internal/engagement"
	"github.com/sundayezeilo/engagebot/internal/server"
	"github.com/sundayezeilo/engagebot/internal/telegram"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   docstore.Store
	Bot     *telegram.Client
	Server  *server.Server
	Handler *engagement.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"storage", cfg.Storage.Backend,
		"quota_policy", cfg.App.QuotaPolicy,
	)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	policy, _ := engagement.ParseQuotaPolicy(cfg.App.QuotaPolicy)

	// Setup application dependencies
	repo := engagement.NewRepository(store, &engagement.RepositoryConfig{
		LinksDocument:  cfg.Storage.LinksDocument,
		QuotasDocument: cfg.Storage.QuotasDocument,
	})
	svc := engagement.NewService(repo, &engagement.ServiceConfig{
		Admins:      engagement.NewAdminList(cfg.Bot.Admins...),
		QuotaPolicy: policy,
		Location:    loc,
	})
	handler := engagement.NewHandler(engagement.HandlerConfig{
		Service: svc,
		Logger:  logger,
	})

	router := chat.NewRouter()
	handler.Register(router)

	bot, err := telegram.New(telegram.Config{
		Token:       cfg.Bot.Token,
		PollTimeout: cfg.Bot.PollTimeout,
		Debug:       cfg.Bot.Debug,
		Logger:      logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect bot: %w", err)
	}

	srv := server.New(cfg, logger, bot, applyMiddleware(router, logger), store)

	logger.Info("application initialized",
		"bot", bot.Username(),
		"commands", router.Commands(),
		"admins", len(cfg.Bot.Admins),
		"timezone", loc.String(),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Bot:     bot,
		Server:  srv,
		Handler: handler,
	}, nil
}

// Start runs the bot and the health server until shutdown.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("bot starting",
		"bot", a.Bot.Username(),
		"health_port", a.Config.Server.Port,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close %s store: %w", a.Store.Backend(), err)
		}
		a.Logger.Info("store closed", "storage", a.Store.Backend())
	}

	return nil
}

// applyMiddleware wraps the update router with middleware in the correct order.
func applyMiddleware(h chat.Handler, logger *slog.Logger) chat.Handler {
	return chat.Chain(
		chat.Recovery(logger), // Outermost: catch panics
		chat.RequestID,        // Add request ID
		chat.Logger(logger),   // Log updates
	)(h)
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// openStore opens the document store selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		logger.Info("opening sqlite store", "path", cfg.Storage.SQLitePath)
		return docstore.NewSQLiteStore(ctx, cfg.Storage.SQLitePath)

	case config.BackendPostgres:
		pool, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store, err := docstore.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		logger.Info("connecting to redis",
			"addr", cfg.Storage.RedisAddr,
			"db", cfg.Storage.RedisDB,
			"key_prefix", cfg.Storage.RedisKeyPrefix,
		)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		return docstore.NewRedisStore(ctx, client, cfg.Storage.RedisKeyPrefix)

	default:
		logger.Info("opening file store", "dir", cfg.Storage.Dir)
		return docstore.NewFileStore(cfg.Storage.Dir)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Set pool configuration
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
