package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"

	"github.com/rpggio/accord/internal/app"
	"github.com/rpggio/accord/internal/auth"
	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/config"
	"github.com/rpggio/accord/internal/domain/user"
	"github.com/rpggio/accord/internal/mcp"
	"github.com/rpggio/accord/internal/telemetry"
	"github.com/rpggio/accord/internal/transport"
)

// ServeCmd runs the server in the configured transport mode.
type ServeCmd struct{}

func (c *ServeCmd) Run(rt *Runtime) error {
	cfg, logger := rt.Config, rt.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	mp, shutdownMetrics, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "accord",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Interval:       cfg.Telemetry.Interval.Std(),
		Insecure:       true,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("metric shutdown failed", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		return err
	}

	a := app.New(db, app.Options{
		Clock:     calendar.SystemClock{Location: cfg.Location()},
		AllowSolo: cfg.Contracts.AllowSolo,
		Metrics:   metrics,
		Logger:    logger,
	})

	stdio := cfg.Transport.Mode == "stdio"
	authEnabled := cfg.Auth.Enabled && !stdio
	if !authEnabled {
		if err := ensureUser(ctx, a.Users, cfg.Auth.DefaultUser); err != nil {
			return err
		}
	}
	resolver := userResolver(cfg.Auth, a)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      resolver,
		AuthEnabled:   authEnabled,
		DefaultUser:   cfg.Auth.DefaultUser,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})

	go app.NewSweeper(a.Instances, cfg.Scheduler.Interval.Std(), logger).Run(ctx)

	if stdio {
		logger.Info("starting stdio transport", "auth", "disabled", "user", cfg.Auth.DefaultUser)
		// Run returns when stdin closes or ctx is canceled.
		if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	}
	return runHTTP(ctx, rt, a, mcpServer, resolver, authEnabled)
}

func runHTTP(ctx context.Context, rt *Runtime, a *app.App, mcpServer *sdkmcp.Server, resolver mcp.UserResolver, authEnabled bool) error {
	cfg, logger := rt.Config, rt.Logger

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	authMW := transport.FixedUserMiddleware(cfg.Auth.DefaultUser)
	if authEnabled {
		authMW = transport.AuthMiddleware(resolver)
	}

	limiter, closeLimiter, err := newLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeLimiter()

	router := transport.NewServer(mcp.NewHandler(a.MCPServices()), transport.Options{
		Auth:        authMW,
		Limiter:     limiter,
		MCP:         mcpHandler,
		CORSOrigins: cfg.Server.CORSOrigins,
		Timeout:     cfg.Server.RequestTimeout.Std(),
		Logger:      logger,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", authEnabled, "rate_limit", limiter != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// userResolver returns the bearer token resolver for the configured mode.
func userResolver(cfg config.AuthConfig, a *app.App) mcp.UserResolver {
	if cfg.Mode == "jwt" {
		return auth.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer)
	}
	return a.APIKeyResolver()
}

// newLimiter builds the configured rate limiter. A nil limiter disables
// rate limiting.
func newLimiter(cfg config.RateLimitConfig) (transport.Limiter, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, noop, nil
	}
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return transport.NewRedisLimiter(client, cfg.RPS, cfg.Burst), func() { _ = client.Close() }, nil
	}
	return transport.NewMemoryLimiter(cfg.RPS, cfg.Burst), noop, nil
}

// ensureUser registers id when it doesn't exist yet.
func ensureUser(ctx context.Context, users *user.Service, id string) error {
	if _, err := users.Get(ctx, id); err == nil {
		return nil
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}
	if _, err := users.Create(ctx, id, id); err != nil && !errors.Is(err, user.ErrUserExists) {
		return fmt.Errorf("creating default user: %w", err)
	}
	return nil
}
