package app

import (
	"context"
	"fmt"

	"github.com/upb/identity-service/config"
	"github.com/upb/identity-service/middleware"
	"github.com/upb/identity-service/oauth"
	"github.com/upb/identity-service/repositories"
	"github.com/upb/identity-service/repositories/postgres"
	"github.com/upb/identity-service/services"
	"github.com/upb/identity-service/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Services
	UserService *services.UserService

	// Token validation
	TokenValidator *token.Validator

	// OAuth2 authorization-code flow
	OAuthClient  *oauth.Client
	OAuthHandler *oauth.Handler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices()
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection pool, schema, and
// repositories.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.DB = db
	d.Users = postgres.NewUserRepository(db, d.Logger)
	d.TxManager = postgres.NewTransactionManager(db, d.Logger)

	return nil
}

// initServices initializes the domain services.
func (d *Dependencies) initServices() {
	d.UserService = services.NewUserService(
		d.Users,
		d.TxManager,
		services.NewBcryptHasher(0),
		postgres.IsUniqueViolation,
		d.Logger,
	)
}

// initAuth initializes token validation and the authorization-code flow.
func (d *Dependencies) initAuth(cfg *config.Config) {
	opts := []token.Option{}
	if cfg.Keycloak.VerifySignature {
		keys := token.NewKeySet(token.KeySetConfig{
			IssuerBase: cfg.Keycloak.AuthServerURL,
			CacheTTL:   cfg.Keycloak.JWKSCacheTTL,
		})
		opts = append(opts, token.WithKeySet(keys))
		d.Logger.Info("token signature verification enabled",
			zap.String("issuer", cfg.Keycloak.AuthServerURL))
	}

	d.TokenValidator = token.NewValidator(
		cfg.Keycloak.AuthServerURL,
		cfg.Keycloak.Audiences(),
		opts...,
	)

	d.OAuthClient = oauth.NewClient(cfg.Keycloak, d.Logger)
	d.OAuthHandler = oauth.NewHandler(
		cfg.Keycloak,
		d.OAuthClient,
		d.TokenValidator,
		d.UserService,
		d.Logger,
	)

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenValidator, d.Logger)
}

// Close releases held resources, currently the database pool.
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
