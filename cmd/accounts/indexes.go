package main

import (
	"context"

	"github.com/spf13/cobra"

	mongostore "github.com/thegoodfork/accounts/internal/infrastructure/db/mongo"
	"github.com/thegoodfork/accounts/internal/pkg/config"
	"github.com/thegoodfork/accounts/pkg/logger"
)

// NewIndexesCmd creates the indexes subcommand.
func NewIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the user collection indexes and exit",
		Long: `Create the unique username and email indexes and the reset-token
index on the users collection. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexes(cmd.Context(), cmd)
		},
	}
}

func runIndexes(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), Service: "accounts"})

	client, db, err := connectMongo(ctx, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongostore.NewAccountRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	cmd.Println("indexes ensured on", cfg.Mongo.Database+".users")
	return nil
}
