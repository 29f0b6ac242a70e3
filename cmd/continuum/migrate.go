package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply graph and relational schema migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := graph.Migrate(ctx, a.graph); err != nil {
		return err
	}
	if err := postgres.Migrate(ctx, a.pg); err != nil {
		return err
	}

	logger.Info("continuum: migrations applied")
	return nil
}
