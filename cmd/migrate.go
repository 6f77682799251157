package main

import (
	"fmt"

	"gymmanager/internal/config"
	"gymmanager/internal/logger"
	"gymmanager/pkg/database"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

var migrateFlags = map[string]cobraflags.Flag{
	configFlag: newConfigFlag(),
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the shared namespace tables",
		Long: `Applies the embedded shared-namespace schema (tenants, users).
Tenant namespaces are created at registration time, not here.`,
		RunE: runMigrate,
	}
	cobraflags.RegisterMap(cmd, migrateFlags)
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(migrateFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Environment, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	pool, err := database.NewPool(cmd.Context(), cfg.Database.URL, cfg.Database.MaxConns, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(cmd.Context(), pool); err != nil {
		return err
	}
	log.Info("shared namespace migrated")
	return nil
}
