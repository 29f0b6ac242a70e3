package main

import (
	"context"

	"github.com/spf13/cobra"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Manage the entity alias dictionary",
}

var ontologyRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh known aliases and mine the graph for near-duplicate entity variants",
	Args:  cobra.ExactArgs(1),
	RunE:  runOntologyRefresh,
}

func init() {
	ontologyCmd.AddCommand(ontologyRefreshCmd)
}

func runOntologyRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	updater := a.ontologyUpdater(cfg)

	known := updater.RefreshKnownAliases()
	mined, err := updater.MineGraphVariants(ctx, args[0])
	if err != nil {
		return err
	}

	logger.WithField("known_aliases", known).WithField("mined_variants", mined).Info("continuum: ontology refreshed")
	return nil
}
