package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/config"
	"github.com/wolfeidau/tracker/internal/logger"
	"github.com/wolfeidau/tracker/internal/server"
	"github.com/wolfeidau/tracker/internal/store"
	memorystore "github.com/wolfeidau/tracker/internal/store/memory"
	postgresstore "github.com/wolfeidau/tracker/internal/store/postgres"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"TRACKER_LISTEN"`

	// CORS configuration: comma-separated list or JSON array of origins
	CORSOrigins string `help:"allowed CORS origins for API requests" default:"" env:"TRACKER_CORS_ORIGINS"`

	// Identity provider configuration
	JWKSURL  string `help:"identity provider JWKS endpoint" env:"TRACKER_JWKS_URL"`
	Issuer   string `help:"expected token issuer" env:"TRACKER_ISSUER"`
	Audience string `help:"expected token audience (skipped when empty)" default:"" env:"TRACKER_AUDIENCE"`

	// Development and operational modes
	NoAuth  bool `help:"disable authentication (development only)" default:"false" env:"TRACKER_NO_AUTH"`
	Metrics bool `help:"expose Prometheus metrics on /metrics" default:"false" env:"TRACKER_METRICS"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"postgres" env:"TRACKER_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"DATABASE_URL"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"TRACKER_POSTGRES_AUTO_MIGRATE"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	corsOrigins, err := config.ParseCORSOrigins(c.CORSOrigins)
	if err != nil {
		return fmt.Errorf("invalid CORS origins: %w", err)
	}

	var (
		projectStore store.ProjectStore
		taskStore    store.TaskStore
		pinger       server.Pinger
	)

	switch c.StoreType {
	case "postgres":
		connString, err := config.NormalizeDatabaseURL(c.PostgresStore.ConnString)
		if err != nil {
			// Refuse to start without a usable database.
			return fmt.Errorf("invalid database configuration: %w", err)
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      connString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		projectStore = postgresstore.NewProjectStore(pool)
		taskStore = postgresstore.NewTaskStore(pool)
		pinger = pool

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		memProjects := memorystore.NewProjectStore()
		projectStore = memProjects
		taskStore = memorystore.NewTaskStore(memProjects)

		log.Warn().Msg("Using in-memory stores, data is lost on restart")
	}

	var authMiddleware func(http.Handler) http.Handler
	if c.NoAuth {
		log.Warn().Msg("Authentication is DISABLED")
	} else {
		if c.JWKSURL == "" || c.Issuer == "" {
			return errors.New("JWKS URL and issuer are required unless --no-auth is set")
		}
		keys := auth.NewKeySet(c.JWKSURL, nil)
		verifier := auth.NewVerifier(keys, c.Issuer, c.Audience)
		authMiddleware = auth.Middleware(verifier)
	}

	srv := server.New(projectStore, taskStore, pinger)
	httpServer := configureHTTPServer(c.Listen, srv.Handler(server.RouterConfig{
		Auth:        authMiddleware,
		CORSOrigins: corsOrigins,
		Metrics:     c.Metrics,
		Log:         log,
	}))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}
