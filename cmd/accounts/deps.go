package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/thegoodfork/accounts/internal/core/ports"
	mongostore "github.com/thegoodfork/accounts/internal/infrastructure/db/mongo"
	"github.com/thegoodfork/accounts/internal/infrastructure/mail"
	"github.com/thegoodfork/accounts/internal/pkg/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// connectMongo dials MongoDB, retrying while the database is still starting.
func connectMongo(ctx context.Context, cfg config.MongoConfig, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	var (
		client *mongo.Client
		db     *mongo.Database
	)
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewFibonacci(connectBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		client, db, err = mongostore.Connect(ctx, mongostore.Config{URI: cfg.URI, Database: cfg.Database})
		if err != nil {
			log.Warn().Err(err).Msg("mongo not ready, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, db, nil
}

// newNotifier picks the SMTP notifier when a relay is configured, else the
// development log notifier.
func newNotifier(cfg *config.Config, log zerolog.Logger) (ports.Notifier, error) {
	if cfg.Mail.Host == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("smtp host is required in production")
		}
		return mail.NewLogNotifier(log), nil
	}
	return mail.NewSMTPNotifier(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
	})
}
