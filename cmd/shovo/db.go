package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/shovo/internal/config"
	"github.com/zulandar/shovo/internal/db"
	"github.com/zulandar/shovo/internal/position"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBBackfillCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the shovo schema",
		Long:  "Creates the database (MySQL only), migrates all tables and assigns positions to unordered list items.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath(cmd))
		},
	}
}

func runDBMigrate(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	if _, err := openStore(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables (%s)\n", len(db.AllModels()), cfg.Database.Driver)
	return nil
}

func newDBBackfillCmd() *cobra.Command {
	var (
		roomName string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Assign list positions",
		Long:  "Assigns positions to list items that have none. With --force every item is renumbered by insertion order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBBackfill(cmd, configPath(cmd), roomName, force)
		},
	}

	cmd.Flags().StringVar(&roomName, "room", "", "only backfill this room")
	cmd.Flags().BoolVar(&force, "force", false, "renumber every item, discarding manual order")
	return cmd
}

func runDBBackfill(cmd *cobra.Command, path, roomName string, force bool) error {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := openStore(cfg)
	if err != nil {
		return err
	}

	var n int
	if roomName != "" {
		n, err = position.Backfill(gormDB, roomName, force)
	} else {
		n, err = position.BackfillAll(gormDB, force)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assigned %d positions\n", n)
	return nil
}

// openStore connects to the configured store and brings its schema up to date.
func openStore(cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}
