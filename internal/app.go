// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "matchstake/internal/api"
	"matchstake/internal/api/handler"
	"matchstake/internal/config"
	"matchstake/internal/odds"
	"matchstake/internal/provider"
	"matchstake/internal/repository"
	"matchstake/internal/repository/postgres"
	"matchstake/internal/service"
	"matchstake/internal/util"
	"matchstake/pkg/cache"
	"matchstake/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	AccountRepository repository.AccountRepository
	WagerRepository   repository.WagerRepository
	LedgerRepository  repository.LedgerRepository

	// Services
	WagerService    service.WagerService
	ResolverService service.ResolverService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Initialize Logger
	util.InitLogger("matchstake")
	app.Logger = util.GetLogger()

	// 2. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Connect to Redis (optional; nil client disables the provider cache)
	redisClient, err := cache.NewRedisClient(app.Config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.Redis = redisClient
	if app.Redis != nil {
		app.Logger.Info("Redis connection established.")
	} else {
		app.Logger.Info("Redis not configured, provider cache disabled.")
	}

	// 5. Initialize Repositories
	app.AccountRepository = postgres.NewAccountRepository(app.DB)
	app.WagerRepository = postgres.NewWagerRepository(app.DB)
	app.LedgerRepository = postgres.NewLedgerRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize the match provider, wrapped with the Redis cache
	matchProvider := provider.NewCachedProvider(
		provider.NewHTTPClient(app.Config.Provider.BaseURL, app.Config.Provider.APIKey, app.Config.Provider.Timeout),
		app.Redis,
		app.Config.Provider.CacheTTL,
		app.Logger,
	)

	// 7. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	settler := service.NewSettler(app.AccountRepository, app.WagerRepository, app.LedgerRepository, app.Logger)
	oddsEngine := odds.NewEngine(odds.DefaultConfig())

	app.WagerService = service.NewWagerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.AccountRepository,
		app.WagerRepository,
		app.LedgerRepository,
		settler,
		matchProvider,
		oddsEngine,
		service.DefaultWagerLimits(),
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.ResolverService = service.NewResolverService(
		app.DB,
		app.DB,
		app.AccountRepository,
		app.WagerRepository,
		settler,
		matchProvider,
		service.ResolverConfig{
			MinGameDuration: app.Config.Resolver.MinGameDuration,
			CallDelay:       app.Config.Resolver.CallDelay,
		},
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 8. Initialize HTTP Handlers and Router
	wagerHandler := handler.NewWagerHandler(app.WagerService, app.Logger)
	internalHandler := handler.NewInternalHandler(app.WagerService, app.ResolverService, app.Config.InternalToken, app.Logger)
	app.HTTPHandler = router.NewRouter(wagerHandler, internalHandler)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
		} else {
			app.Logger.Info("Redis connection closed.")
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
