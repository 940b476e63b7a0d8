// Package app wires configuration, storage, messaging and the HTTP surface
// into a runnable service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/cerberoai/cerbero/adapter/api"
	autopilotApp "github.com/cerberoai/cerbero/internal/autopilot/application"
	"github.com/cerberoai/cerbero/internal/autopilot/infrastructure/coordinator"
	billingApp "github.com/cerberoai/cerbero/internal/billing/application"
	billingDomain "github.com/cerberoai/cerbero/internal/billing/domain"
	"github.com/cerberoai/cerbero/internal/billing/infrastructure/dedup"
	"github.com/cerberoai/cerbero/internal/billing/infrastructure/stripegateway"
	dashboardApp "github.com/cerberoai/cerbero/internal/dashboard/application"
	"github.com/cerberoai/cerbero/internal/notify"
	"github.com/cerberoai/cerbero/internal/shared/infrastructure/eventbus"
	"github.com/cerberoai/cerbero/internal/shared/infrastructure/migrations"
	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
	tenantPersistence "github.com/cerberoai/cerbero/internal/tenant/infrastructure/persistence"
	"github.com/cerberoai/cerbero/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database (one of the two is set, per DB_DRIVER)
	PGPool   *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis (optional, backs webhook event dedup)
	RedisClient *redis.Client

	// Messaging
	EventPublisher eventbus.Publisher

	// Repositories
	TenantRepo tenantDomain.Repository

	// Services
	AutopilotService *autopilotApp.Service
	OverviewService  *dashboardApp.Service
	WebhookService   *billingApp.WebhookService

	// HTTP
	Handler *api.Handler
	Server  *api.Server
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initStorage(ctx); err != nil {
		return nil, err
	}

	// Redis is optional. Without it webhook emails fall back to
	// at-least-once delivery instead of exactly-once.
	var eventDedup billingApp.EventDedup = dedup.NoopDedup{}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to Redis: %w", err)
			}
			logger.Warn("Redis not available, webhook dedup disabled", "error", err)
		} else {
			c.RedisClient = redisClient
			eventDedup = dedup.NewRedisDedup(redisClient, cfg.DedupTTL, logger)
			logger.Info("connected to Redis")
		}
	} else {
		logger.Info("Redis not configured, webhook dedup disabled")
	}

	// Audit event publisher. RabbitMQ is optional in development.
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			c.EventPublisher = publisher
		}
	} else {
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	}
	audit := eventbus.NewEmitter(c.EventPublisher, logger)

	founders := billingDomain.ParseFounderList(cfg.FounderEmails)

	coordinatorClient := coordinator.NewClient(coordinator.Config{
		BaseURL:     cfg.CoordinatorBaseURL,
		InternalKey: cfg.CoordinatorInternalKey,
		Timeout:     cfg.CoordinatorTimeout,
	}, logger)

	mailer := notify.NewWebhookMailer(cfg.EmailWebhookURL, logger)
	gateway := stripegateway.NewClient(cfg.StripeSecretKey)

	c.AutopilotService = autopilotApp.NewService(c.TenantRepo, coordinatorClient, audit, logger)
	c.OverviewService = dashboardApp.NewService(c.TenantRepo, founders, logger)
	c.WebhookService = billingApp.NewWebhookService(c.TenantRepo, gateway, mailer, eventDedup, founders, audit, logger)

	c.Handler = api.NewHandler(api.HandlerConfig{
		Sessions:      api.NewBearerSessions(cfg.JWTSecret),
		Autopilot:     c.AutopilotService,
		Overview:      c.OverviewService,
		Webhooks:      c.WebhookService,
		WebhookSecret: cfg.StripeWebhookSecret,
		Logger:        logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.ListenAddr
	c.Server = api.NewServer(serverCfg, c.Handler, logger)

	return c, nil
}

// initStorage connects the configured database, runs migrations and builds
// the tenant repository.
func (c *Container) initStorage(ctx context.Context) error {
	switch c.Config.DBDriver {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.PGPool = pool
		c.TenantRepo = tenantPersistence.NewPostgresTenantRepository(pool)
		c.Logger.Info("connected to database", "driver", "postgres")
	case "sqlite":
		dbConn, err := sql.Open("sqlite", c.Config.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// modernc sqlite serializes writes itself but a single connection
		// avoids SQLITE_BUSY under concurrent handlers.
		dbConn.SetMaxOpenConns(1)
		if err := dbConn.PingContext(ctx); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to ping sqlite database: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, dbConn); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.SQLiteDB = dbConn
		c.TenantRepo = tenantPersistence.NewSQLiteTenantRepository(dbConn)
		c.Logger.Info("connected to database", "driver", "sqlite", "path", c.Config.SQLitePath)
	default:
		return fmt.Errorf("unsupported database driver %q", c.Config.DBDriver)
	}
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing sqlite database", "error", err)
		}
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
