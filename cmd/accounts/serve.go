package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thegoodfork/accounts/internal/api"
	"github.com/thegoodfork/accounts/internal/core/ports"
	"github.com/thegoodfork/accounts/internal/core/service"
	mongostore "github.com/thegoodfork/accounts/internal/infrastructure/db/mongo"
	redisstore "github.com/thegoodfork/accounts/internal/infrastructure/db/redis"
	httpserver "github.com/thegoodfork/accounts/internal/infrastructure/http"
	"github.com/thegoodfork/accounts/internal/infrastructure/http/handlers"
	"github.com/thegoodfork/accounts/internal/pkg/config"
	"github.com/thegoodfork/accounts/pkg/logger"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. The server drains in-flight requests on
SIGINT or SIGTERM before exiting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "accounts",
	})

	client, db, err := connectMongo(ctx, cfg.Mongo, log)
	if err != nil {
		log.Error().Err(err).Msg("mongo unavailable")
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	repo := mongostore.NewAccountRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Error().Err(err).Msg("ensure indexes")
		return err
	}

	checks := []handlers.Check{{Name: "mongodb", Ping: mongostore.Pinger(db)}}

	var cache ports.ProfileCache
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Error().Err(err).Msg("redis unavailable")
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache = redisstore.NewProfileCache(rdb, cfg.Redis.CacheTTL)
		checks = append(checks, handlers.Check{Name: "redis", Ping: redisstore.Pinger(rdb)})
	} else {
		log.Info().Msg("REDIS_ADDR empty, profile cache disabled")
	}

	notifier, err := newNotifier(cfg, logger.Component("mail"))
	if err != nil {
		return err
	}

	hasher, err := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	tokens := service.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpire)
	resets := service.NewResetTokenIssuer(repo, cfg.Auth.ResetTokenTTL)
	accounts := service.NewAccountService(repo, hasher, tokens, resets, notifier, cache, logger.Component("accounts"))

	e := httpserver.NewRouter(api.Deps{
		Accounts:    accounts,
		Tokens:      tokens,
		Log:         logger.Component("http"),
		CORSOrigins: cfg.CORSOrigins,
	}, checks...)

	return httpserver.Serve(ctx, e, cfg.Addr(), log)
}
