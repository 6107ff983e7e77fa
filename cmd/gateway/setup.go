package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/config"
	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/dynamo"
	"github.com/aelexs/auth-gateway/internal/gateway/adapter"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
	"github.com/aelexs/auth-gateway/internal/gateway/middleware"
	"github.com/aelexs/auth-gateway/internal/gateway/port"
	"github.com/aelexs/auth-gateway/internal/redis"
)

// setup is the gateway composition root. It resolves the signing secret,
// builds infrastructure clients and adapters, assembles the middleware
// pipeline, and mounts the routes.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger, mux *http.ServeMux) (func(context.Context) error, error) {
	clock := domain.RealClock{}

	// 1. Signing secret. Resolved once at startup; the codec never
	// re-reads it.
	secretSource, err := createSecretSource(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("gateway setup: create secret source: %w", err)
	}
	secret, err := secretSource.SigningSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateway setup: resolve signing secret: %w", err)
	}

	codec := auth.NewCodec(auth.CodecConfig{
		Secret:     secret,
		Issuer:     domain.TokenIssuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		Clock:      clock,
	})

	// 2. User store.
	userStore, err := createUserStore(ctx, cfg, logger, clock)
	if err != nil {
		return nil, fmt.Errorf("gateway setup: create user store: %w", err)
	}

	// 3. Rate limiter. Redis when configured, in-process otherwise.
	var limiter middleware.RateLimiter
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
		})
		limiter = adapter.NewRedisRateLimiter(redisClient.RDB,
			cfg.RateLimit.Requests, int(cfg.RateLimit.Window.Seconds()))
		logger.InfoContext(ctx, "using redis rate limiter", slog.String("addr", cfg.Redis.Addr))
	} else {
		limiter = adapter.NewLocalRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, clock)
		logger.InfoContext(ctx, "using in-process rate limiter")
	}

	// 4. Auth service.
	authSvc := app.NewAuthService(app.AuthServiceConfig{
		Users:  userStore,
		Codec:  codec,
		Clock:  clock,
		Logger: logger,
	})

	// 5. Middleware pipeline + routes. The pipeline wraps the gateway's
	// routes only; /healthz stays outside so probes never burn quota.
	authn := middleware.Auth(middleware.AuthConfig{
		Codec:                  codec,
		Resolver:               authSvc,
		Logger:                 logger,
		MissingSessionInternal: cfg.Auth.MissingSessionInternal,
	})
	pipeline := middleware.Pipeline(middleware.PipelineConfig{
		RateLimit: middleware.RateLimit(limiter, logger),
		Timeout:   middleware.Timeout(cfg.Gateway.RequestTimeout),
		Headers:   middleware.SecurityHeaders(),
		Trace:     middleware.Trace(logger),
	})

	routes := http.NewServeMux()
	port.NewHandler(authSvc, logger).Register(routes, authn)
	mux.Handle("/", pipeline(routes))

	logger.InfoContext(ctx, "gateway initialized")

	cleanup := func(_ context.Context) error {
		if redisClient != nil {
			return redisClient.Close()
		}
		return nil
	}

	return cleanup, nil
}

// createSecretSource picks the signing secret source for the environment.
// Secrets Manager when a secret ID is configured, the configured static
// secret otherwise, and an ephemeral random key as the local fallback.
func createSecretSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.SecretSource, error) {
	if cfg.Auth.SecretID != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}

		var smOpts []func(*secretsmanager.Options)
		if cfg.AWS.Endpoint != "" {
			endpoint := cfg.AWS.Endpoint
			smOpts = append(smOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}

		return adapter.NewAWSSecretSource(secretsmanager.NewFromConfig(awsCfg, smOpts...), cfg.Auth.SecretID), nil
	}

	if !cfg.Auth.SigningSecret.IsEmpty() {
		return auth.NewStaticSecret([]byte(cfg.Auth.SigningSecret.Expose())), nil
	}

	if !cfg.IsLocal() {
		return nil, fmt.Errorf("no signing secret configured: %w", domain.ErrConfigRequired)
	}

	// Ephemeral key: tokens do not survive a restart, which is fine for
	// local development.
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate ephemeral signing key: %w", err)
	}
	logger.Warn("using ephemeral signing key, tokens will not survive a restart")
	return auth.NewStaticSecret(key), nil
}

// createUserStore picks the user store for the environment. Local without a
// DynamoDB endpoint runs fully in memory.
func createUserStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, clock domain.Clock) (app.UserStore, error) {
	if cfg.IsLocal() && cfg.DynamoDB.Endpoint == "" {
		logger.InfoContext(ctx, "using in-memory user store")
		return adapter.NewMemoryUserStore(clock), nil
	}

	dynamoClient, err := dynamo.NewClient(ctx, dynamo.Config{
		Endpoint: cfg.DynamoDB.Endpoint,
		Region:   cfg.AWS.Region,
		Timeout:  cfg.DynamoDB.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create dynamo client: %w", err)
	}

	logger.InfoContext(ctx, "using dynamodb user store",
		slog.String("table", cfg.DynamoDB.UsersTable))
	return adapter.NewUserStore(dynamoClient.DB, cfg.DynamoDB.UsersTable, clock), nil
}
