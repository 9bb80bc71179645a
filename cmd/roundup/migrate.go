package main

import (
	"github.com/spf13/cobra"

	"reading_roundup/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog schema",
	Long: `Create the catalog tables for the configured driver. The server and
the other commands expect the schema to exist and never create it.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db, cfg.Database.Driver); err != nil {
		return err
	}
	logger.Info("catalog schema ready", "driver", cfg.Database.Driver)
	return nil
}
