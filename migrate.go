package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"stocks-simulator/config"
	"stocks-simulator/database"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "creates or updates the database schema" }
func (*migrateCmd) Usage() string {
	return `migrate

  Applies the schema for users, holdings and transactions, then exits.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not build logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := database.AutoMigrate(db.DB); err != nil {
		logger.Error("Failed to migrate models", zap.Error(err))
		return subcommands.ExitFailure
	}
	logger.Info("Schema is up to date")
	return subcommands.ExitSuccess
}
