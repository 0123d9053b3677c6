package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tbox/dashboard/auth"
	"github.com/tbox/dashboard/config"
	"github.com/tbox/dashboard/credential"
	"github.com/tbox/dashboard/internal/observability"
	"github.com/tbox/dashboard/middleware"
	"github.com/tbox/dashboard/repositories"
	"github.com/tbox/dashboard/repositories/postgres"
	"github.com/tbox/dashboard/services"
	"github.com/tbox/dashboard/services/audit"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users      repositories.UserRepository
	Vehicles   repositories.VehicleRepository
	AuthEvents repositories.AuthEventRepository
	TxManager  repositories.TransactionManager

	// Services
	AuthService    *services.AuthService
	UserService    *services.UserService
	VehicleService *services.VehicleService
	Audit          *audit.Service
	AuditRecorder  audit.Recorder

	// Auth
	Issuer         *credential.Issuer
	Verifier       *credential.Verifier
	AuthMiddleware *middleware.AuthMiddleware
	authHandler    *auth.Handler
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies connects to PostgreSQL, initializes the schema and wires up
// all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := NewDependenciesWithFactory(cfg, factory, logger)
	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithFactory wires all dependencies over an existing
// repository factory. No connection is opened.
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) *Dependencies {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()
	deps.initObservability(cfg)
	deps.initAudit(cfg)
	deps.initServices(cfg)
	deps.initAuth(cfg)

	return deps
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Vehicles = repos.Vehicles
	d.AuthEvents = repos.AuthEvents
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initObservability(cfg *config.Config) {
	if cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NewPrometheusMetrics()
		return
	}
	d.Metrics = observability.NopMetrics{}
}

// initAudit creates the audit service. Workers are started by Start.
func (d *Dependencies) initAudit(cfg *config.Config) {
	d.Audit = audit.NewService(d.AuthEvents, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})

	if cfg.Audit.Enabled {
		d.AuditRecorder = d.Audit
	} else {
		d.Logger.Info("auth audit trail disabled")
		d.AuditRecorder = audit.NopRecorder{}
	}
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Issuer = credential.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	d.Verifier = credential.NewVerifier(cfg.Auth.JWTSecret)

	d.AuthService = services.NewAuthService(
		d.Users,
		d.TxManager,
		credential.NewBcryptHasher(cfg.Auth.BcryptCost),
		d.Issuer,
		d.Logger,
	)
	d.UserService = services.NewUserService(d.Users)
	d.VehicleService = services.NewVehicleService(d.Vehicles)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, cfg.Auth.CookieName, d.Logger).
		WithMetrics(d.Metrics).
		WithRecorder(d.AuditRecorder)

	d.authHandler = auth.NewHandler(cfg.Auth, d.AuthService, d.AuthMiddleware, d.Logger).
		WithMetrics(d.Metrics).
		WithRecorder(d.AuditRecorder)

	d.Logger.Info("auth handler initialized",
		zap.Duration("token_ttl", cfg.Auth.TokenTTL),
		zap.String("cookie", cfg.Auth.CookieName))
}

// Start starts background workers
func (d *Dependencies) Start() error {
	if !d.Config.Audit.Enabled {
		return nil
	}
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Config != nil && d.Config.Audit.Enabled && d.Audit != nil && d.Audit.GetStats().Started {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
