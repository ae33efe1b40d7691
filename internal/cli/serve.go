package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/passgen/passgen/internal/analytics"
	"github.com/passgen/passgen/internal/database"
	"github.com/passgen/passgen/internal/ratelimit"
	"github.com/passgen/passgen/internal/repository"
	"github.com/passgen/passgen/internal/server"
	"github.com/passgen/passgen/internal/services"
)

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the password API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			defer func() { _ = a.log.Sync() }()
			return a.serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port (overrides SERVER_PORT)")
	return cmd
}

// serve wires storage, stats, rate limiting and the HTTP server, then blocks
// until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log
	log.Info("starting passgen", "version", Version, "env", cfg.App.Env, "log_level", log.Level().String())

	var (
		opts     []server.Option
		closeDB  func()
		repo     repository.StatsRepository = repository.NewMemoryStatsRepository()
		usage    services.UsageRecorder
		pending  services.PendingStatsProvider
		limiter  ratelimit.Limiter
		serveErr = make(chan error, 1)
	)

	if cfg.DatabaseEnabled() {
		pool, err := database.NewPool(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		closeDB = pool.Close

		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("database ready", "host", cfg.Database.Host, "migrations_applied", applied)

		repo = repository.NewPostgresStatsRepository(pool)
		opts = append(opts, server.WithReadyCheck("database", pool.HealthCheck))
	} else if cfg.App.IsProduction() {
		log.Warn("no database configured in production, stats are kept in memory and lost on restart")
	} else {
		log.Info("no database configured, stats are kept in memory")
	}

	if cfg.Stats.Enabled {
		counter := analytics.NewGenerationCounter(analytics.Config{
			FlushInterval: cfg.Stats.FlushInterval,
			BatchSize:     cfg.Stats.BatchSize,
		}, analytics.NewRepositoryFlusher(repo, log))
		usage, pending = counter, counter

		opts = append(opts, server.WithShutdownHook("stats", func(context.Context) error {
			counter.Stop()
			if n := counter.Dropped(); n > 0 {
				log.Warn("generation stats dropped", "events", n)
			}
			return nil
		}))
	}

	if cfg.Rate.Enabled && cfg.Rate.Backend == "redis" {
		if !cfg.RedisEnabled() {
			a.closeOnError(closeDB)
			return errors.New("rate limit backend is redis but REDIS_HOST is not set")
		}
		client, err := ratelimit.Connect(ctx, &cfg.Redis)
		if err != nil {
			a.closeOnError(closeDB)
			return err
		}
		rl, err := ratelimit.NewRedisLimiter(client, ratelimit.Config{
			Requests: cfg.Rate.Requests,
			Window:   cfg.Rate.Window,
		}, ratelimit.WithOwnedClient())
		if err != nil {
			_ = client.Close()
			a.closeOnError(closeDB)
			return err
		}
		limiter = rl
		opts = append(opts,
			server.WithRateLimiter(rl),
			server.WithReadyCheck("redis", rl.Ping),
		)
	}

	// Registered last so the stats flush above still has a database.
	if closeDB != nil {
		opts = append(opts, server.WithShutdownHook("database", func(context.Context) error {
			closeDB()
			return nil
		}))
	}
	opts = append(opts, server.WithVersion(Version))

	passwords, err := services.NewPasswordService(services.PasswordServiceConfig{
		Defaults: a.defaultProfile(),
		MaxCount: cfg.Password.MaxCount,
	}, usage)
	if err != nil {
		return a.abort(limiter, closeDB, err)
	}
	stats := services.NewStatsService(repo, pending)

	srv, err := server.New(cfg, log, passwords, stats, opts...)
	if err != nil {
		return a.abort(limiter, closeDB, err)
	}
	if err := srv.Listen(); err != nil {
		return a.abort(srv.RateLimiter(), closeDB, err)
	}

	go func() { serveErr <- srv.Serve() }()

	var runErr error
	select {
	case runErr = <-serveErr:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *app) closeOnError(closeDB func()) {
	if closeDB != nil {
		closeDB()
	}
}

// abort releases what was opened before the server took ownership.
func (a *app) abort(limiter ratelimit.Limiter, closeDB func(), err error) error {
	if limiter != nil {
		_ = limiter.Close()
	}
	a.closeOnError(closeDB)
	return err
}
