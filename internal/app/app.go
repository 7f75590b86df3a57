package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/lock"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// publisher is a ClonePublisher that owns a connection
type publisher interface {
	service.ClonePublisher
	Close() error
}

// App holds the connections and services shared by the API server and the CLI
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *database.Service
	Redis  *redis.Client

	Accounts      repository.AccountRepository
	AccountSvc    service.AccountService
	AccountCloner service.AccountCloner
	Inventory     service.InventoryService

	validator  service.AccountValidator
	categories service.CategoryCloner
	products   service.ProductCloner
	locker     service.TargetLocker
	publisher  publisher
}

// New connects to every backing service, runs migrations and builds the services.
// It fails before connecting when JWT_SECRET is unset.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET: %w", service.ErrMissingJWTSecret)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db.DB(), logger); err != nil {
		db.Close()
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	if cfg.Redis.Enabled() {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("Redis unreachable, clone lock and rate limiting will fail open", zap.Error(err))
		}
		a.locker = lock.NewRedisTargetLocker(a.Redis, cfg.Clone.LockTTL, logger)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		a.publisher = events.NopPublisher{}
	}

	a.wire(db, store)
	return a, nil
}

func (a *App) wire(db *database.Service, store storage.BlobStore) {
	cfg := a.Config

	a.Accounts = repository.NewAccountRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	imageRepo := repository.NewImageRepository(db.DB())
	customizationRepo := repository.NewCustomizationRepository(db.DB())

	a.AccountSvc = service.NewAccountService(a.Accounts, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)

	duplicator := service.NewImageDuplicator(imageRepo, store, &http.Client{}, service.ImageDuplicatorConfig{
		FetchTimeout: cfg.Clone.ImageFetchTimeout,
		MaxBytes:     cfg.Clone.MaxImageBytes,
	}, a.Logger)

	a.validator = service.NewAccountValidator(a.Accounts, cfg.Clone.DefaultListingLimit)
	a.categories = service.NewCategoryCloner(categoryRepo, a.Logger)
	a.products = service.NewProductCloner(productRepo, imageRepo, duplicator, service.ProductClonerConfig{
		BatchSize:          cfg.Clone.BatchSize,
		BatchPause:         cfg.Clone.BatchPause,
		DefaultMaxProducts: cfg.Clone.DefaultMaxProducts,
	}, a.Logger)

	a.AccountCloner = service.NewAccountCloner(a.Accounts, customizationRepo, a.AccountSvc, duplicator, a.categories, a.products, cfg.Clone.DefaultListingLimit, a.Logger)
	a.Inventory = service.NewInventoryService(a.Accounts, categoryRepo, productRepo, imageRepo, cfg.Clone.DefaultListingLimit)
}

// SessionAuthorizer accepts admin bearer tokens issued by AccountSvc
func (a *App) SessionAuthorizer() service.AuthorizationStrategy {
	return service.NewSessionAuthorizer(a.AccountSvc, a.Accounts, a.Config.Clone.AdminRoles)
}

// SharedSecretAuthorizer accepts the configured clone API key
func (a *App) SharedSecretAuthorizer() service.AuthorizationStrategy {
	return service.NewSharedSecretAuthorizer(a.Config.Clone.APIKey)
}

// Orchestrator builds the clone entry point for one variant
func (a *App) Orchestrator(variant string, strategy service.AuthorizationStrategy) service.CloneOrchestrator {
	return service.NewCloneOrchestrator(service.OrchestratorDeps{
		Variant:    variant,
		Strategy:   strategy,
		Validator:  a.validator,
		Categories: a.categories,
		Products:   a.products,
		Locker:     a.locker,
		Publisher:  a.publisher,
		Timeout:    a.Config.Clone.Timeout,
		Logger:     a.Logger,
	})
}

// Close releases every connection; errors are logged
func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		a.Logger.Error("Failed to close event publisher", zap.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
