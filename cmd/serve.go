package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ShopAdmin/internal/auth"
	"ShopAdmin/internal/config"
	"ShopAdmin/internal/db"
	"ShopAdmin/internal/handlers"
	"ShopAdmin/internal/metrics"
	"ShopAdmin/internal/passwords"
	"ShopAdmin/internal/provision"
	"ShopAdmin/internal/ratelimit"
	"ShopAdmin/internal/sessions"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const sessionPurgeInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var listenAddr string

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "override HOST:PORT")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()
	cfg, logger := a.cfg, a.logger

	if cfg.SessionSecret == config.DevSessionSecret {
		logger.Warn("SESSION_SECRET is not set; using the development secret")
	}

	d, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	hasher, err := a.hasher()
	if err != nil {
		return err
	}
	if cfg.HasSeed() {
		if err := seedAdmin(ctx, cfg, d, hasher, logger); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = sessions.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
	}

	backend := newSessionBackend(cfg.SessionBackend, d, rdb)
	if p, ok := backend.(sessions.Purger); ok {
		go purgeSessions(ctx, p, logger)
	}
	mgr := sessions.NewManager(backend, sessions.Options{
		Secret: cfg.SessionSecret,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.HTTPS,
	})

	verifier, err := auth.NewVerifier(d, mgr, hasher, logger)
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter
	if cfg.LoginRateLimit > 0 {
		if rdb != nil {
			limiter = ratelimit.NewRedis(rdb, "", cfg.LoginRateLimit, cfg.LoginRateWindow)
		} else {
			mem := ratelimit.NewMemory(cfg.LoginRateLimit, cfg.LoginRateWindow)
			defer mem.Stop()
			limiter = mem
		}
	}

	h, err := handlers.New(handlers.Deps{
		Store:    d,
		Verifier: verifier,
		Guard:    auth.NewGuard(d, mgr),
		Limiter:  limiter,
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	if listenAddr != "" {
		addr = listenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", addr),
			zap.String("driver", string(d.Driver())),
			zap.String("session_backend", cfg.SessionBackend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSessionBackend picks the session store named by SESSION_BACKEND.
// Validate has already ensured rdb is set for "redis".
func newSessionBackend(kind string, d *db.DB, rdb *redis.Client) sessions.Backend {
	switch kind {
	case "redis":
		return sessions.NewRedisBackend(rdb, "")
	case "sql":
		return sessions.NewSQLBackend(d)
	default:
		return sessions.NewMemoryBackend()
	}
}

func purgeSessions(ctx context.Context, p sessions.Purger, logger *zap.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.Purge(ctx)
			if err != nil {
				logger.Warn("purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}

// seedAdmin creates the ADMIN_SEED_* administrator if it does not exist.
// Failure aborts startup.
func seedAdmin(ctx context.Context, cfg *config.Config, d *db.DB, hasher passwords.Hasher, logger *zap.Logger) error {
	logger.Warn("ADMIN_SEED_PASSWORD is set in plaintext; remove it from the environment once the account exists",
		zap.String("email", cfg.SeedEmail))

	created, err := provision.EnsureSeedAdmin(ctx, d, hasher, cfg.SeedEmail, cfg.SeedPassword, cfg.SeedName)
	if err != nil {
		return err
	}
	if created {
		logger.Info("seed administrator created", zap.String("email", cfg.SeedEmail))
	} else {
		logger.Info("seed administrator already exists", zap.String("email", cfg.SeedEmail))
	}
	return nil
}
