package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vaughan-dsouza/board/internal/auth"
	"github.com/vaughan-dsouza/board/internal/config"
	"github.com/vaughan-dsouza/board/internal/db"
	"github.com/vaughan-dsouza/board/internal/handlers"
	"github.com/vaughan-dsouza/board/internal/logging"
	"github.com/vaughan-dsouza/board/internal/metrics"
	"github.com/vaughan-dsouza/board/internal/middleware"
	"github.com/vaughan-dsouza/board/internal/posts"
	"github.com/vaughan-dsouza/board/internal/repository"
	"github.com/vaughan-dsouza/board/internal/repository/memory"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := logging.SetupDefault(os.Stdout, cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// stores bundles the repositories of the selected driver.
type stores struct {
	accounts repository.AccountRepository
	posts    repository.PostRepository
	tokens   repository.RefreshTokenRepository
	pinger   repository.Pinger
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		m := memory.New()
		return &stores{
			accounts: m.Accounts(),
			posts:    m.Posts(),
			tokens:   m.RefreshTokens(),
			pinger:   m,
			close:    func() error { return nil },
		}, nil
	}

	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxOpen:     cfg.DBMaxOpen,
		MaxIdle:     cfg.DBMaxIdle,
		MaxLifetime: cfg.DBMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, conn.DB); err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("migrations applied")
	}

	return &stores{
		accounts: repository.NewPostgresAccountRepo(conn),
		posts:    repository.NewPostgresPostRepo(conn),
		tokens:   repository.NewPostgresRefreshTokenRepo(conn),
		pinger:   conn,
		close:    conn.Close,
	}, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("store close", "error", err)
		}
	}()

	authSvc, err := auth.NewService(st.accounts, st.tokens, auth.Options{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, logger)
	if err != nil {
		return err
	}
	postSvc := posts.NewService(st.posts, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMin > 0 {
		limiter = middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitPerMin), logger)
		defer limiter.Stop()
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Handler:     handlers.NewHandler(authSvc, postSvc, st.pinger, handlers.Options{CookieSecure: cfg.CookieSecure}, logger),
		Resolver:    authSvc,
		Logger:      logger,
		Metrics:     metrics.NewCollector(reg),
		Gatherer:    reg,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
