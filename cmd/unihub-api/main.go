package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/api"
	"github.com/edvin/unihub/internal/api/handler"
	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/config"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/db"
	"github.com/edvin/unihub/internal/logging"
	"github.com/edvin/unihub/internal/metrics"
	"github.com/edvin/unihub/internal/realtime"
	"github.com/edvin/unihub/internal/storage"
	"github.com/edvin/unihub/internal/token"
)

const pruneInterval = time.Hour

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-admin" {
		createAdmin(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "", "Migration files directory (default: embedded migrations)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.MetricsEnabled {
		metrics.RegisterPgxPoolMetrics(pool)
	}

	codec, err := token.New(cfg.TokenMode, cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build token codec")
	}
	if cfg.TokenMode == config.TokenModeUnsigned {
		logger.Warn().Msg("token signatures are not verified; do not expose this server publicly")
	}

	var avatars handler.AvatarStore
	if cfg.S3Enabled() {
		store := storage.NewAvatarStore(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}, logger)
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Str("bucket", cfg.S3Bucket).Msg("failed to prepare avatar bucket")
		}
		avatars = store
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("avatar uploads enabled")
	}

	var limiter *mw.IPRateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = mw.NewIPRateLimiter(cfg.AuthRateLimit, int(cfg.AuthRateLimit*2)+1, 10*time.Minute)
		go limiter.Run(ctx)
	}

	srv := api.NewServer(logger, api.Deps{
		DB:      pool,
		Codec:   codec,
		Hub:     realtime.NewHub(),
		Avatars: avatars,
		Limiter: limiter,
	}, cfg)

	go pruneRevoked(ctx, srv.Services().Auth, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting UniHub API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

// pruneRevoked drops expired revocation records until ctx is done.
func pruneRevoked(ctx context.Context, auth *core.AuthService, logger zerolog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PruneRevoked(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to prune revoked tokens")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("count", n).Msg("pruned revoked tokens")
			}
		}
	}
}

func createAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "Admin email address (required)")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (or ADMIN_PASSWORD)")
	name := fs.String("name", "", "Full name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --password are required")
		fmt.Fprintln(os.Stderr, "usage: unihub-api create-admin --email <email> --password <password> [--name <name>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var fullName *string
	if *name != "" {
		fullName = name
	}

	user, err := core.NewUserService(pool).EnsureAdmin(ctx, *email, *password, fullName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin ready.\n\n")
	fmt.Printf("  Email:  %s\n", user.Email)
	fmt.Printf("  ID:     %s\n", user.ID)
}
