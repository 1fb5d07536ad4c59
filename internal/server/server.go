// Package server contains the HTTP handlers of the account linking API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "guildlink/docs" // swagger docs
	"guildlink/internal/audit"
	"guildlink/internal/cache"
	"guildlink/internal/config"
	"guildlink/internal/database"
	"guildlink/internal/featureflags"
	"guildlink/internal/gateway"
	"guildlink/internal/middleware"
	"guildlink/internal/models"
	"guildlink/internal/notifications"
	"guildlink/internal/repository"
	"guildlink/internal/seed"
	"guildlink/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const lockWait = 5 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	consentRepo    repository.ConsentmentRepository
	auditRepo      repository.AuditEventRepository
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	identity       service.IdentityProvider
	catalog        *service.CatalogService
	authz          *service.AuthorizationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies and the REST
// clients configured in cfg.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	timeout := time.Duration(cfg.HTTPClientTimeoutSeconds) * time.Second
	identity := gateway.NewIdentityClient(cfg.IdentityAPIURL, timeout)
	guild := gateway.NewGuildClient(cfg.GuildAPIURL, cfg.GuildBotToken, cfg.GuildID, timeout)
	return newServer(cfg, db, redisClient, identity, guild), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, identity service.IdentityProvider, guild service.GuildGateway) *Server {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("guildlink-api"),
		consentRepo:    repository.NewConsentmentRepository(db),
		auditRepo:      repository.NewAuditEventRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		identity:       identity,
	}

	sinks := audit.Multi{audit.NewLogSink(middleware.Logger), audit.NewStoreSink(s.auditRepo)}
	var locker service.IdentityLocker = cache.NewLocalLocker()
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		if s.featureFlags.Enabled(featureflags.AuditPublish, 0) {
			sinks = append(sinks, audit.NewPublishSink(s.notifier))
		}
		locker = cache.NewRedisLocker(redisClient, time.Duration(cfg.LockTTLSeconds)*time.Second, lockWait)
	}

	s.catalog = service.NewCatalogService(
		repository.NewRoleCatalogRepository(db),
		redisClient,
		time.Duration(cfg.RoleCatalogCacheSecs)*time.Second,
	)
	s.authz = service.NewAuthorizationService(s.consentRepo, s.catalog, guild, locker, sinks, s.featureFlags)
	return s
}

// Authorization returns the authorization workflow used by the handlers.
func (s *Server) Authorization() *service.AuthorizationService {
	return s.authz
}

// Consentments returns the consentment repository.
func (s *Server) Consentments() repository.ConsentmentRepository {
	return s.consentRepo
}

// Notifier returns the audit broadcaster, nil without Redis.
func (s *Server) Notifier() *notifications.Notifier {
	return s.notifier
}

// LoadRoleCatalog replaces the stored role catalog with the configured catalog file.
func (s *Server) LoadRoleCatalog(ctx context.Context) (int, error) {
	return seed.RoleCatalog(ctx, s.catalog, s.config.RoleCatalogFile)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Key",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	link := api.Group("/link", middleware.SessionRequired(s.config.SessionSecret, s.redis))
	link.Get("/", s.GetLinkStatus)
	link.Post("/", middleware.RateLimit(s.redis, 5, time.Minute, "link"), s.Link)
	link.Post("/revoke", middleware.RateLimit(s.redis, 3, time.Minute, "revoke"), s.RevokeLink)

	admin := api.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/roles", s.GetRoleCatalog)
	admin.Post("/roles/reload", s.ReloadRoleCatalog)
	admin.Get("/audit/:vid", s.GetAuditEvents)
	admin.Get("/consentments/:vid", s.GetConsentments)
	admin.Post("/consentments/:vid/revoke", s.AdminRevoke)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: locks and caches fall back to in-process implementations.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "guildlink",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		err := s.notifier.StartAuditSubscriber(s.shutdownCtx, func(ev models.AuditEvent) {
			if ev.Level == models.AuditLevelCritical {
				middleware.Logger.Log(s.shutdownCtx, middleware.LevelCritical, "critical audit event received",
					slog.String("event", ev.Event),
					slog.Int64("vid", ev.VID),
				)
			}
		})
		if err != nil {
			middleware.Logger.Warn("failed to start audit subscriber", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
