package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-gin-gorm-crm/internal/app"
	"go-gin-gorm-crm/internal/core/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func withMigrator(fn func(mg *database.Migrator) error) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()
	mg, err := app.NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(mg *database.Migrator) error {
			if err := mg.Up(); err != nil {
				return err
			}
			return printVersion(cmd, mg)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid steps %q", args[0])
			}
			steps = n
		}
		return withMigrator(func(mg *database.Migrator) error {
			for i := 0; i < steps; i++ {
				if err := mg.Down(); err != nil {
					return err
				}
			}
			return printVersion(cmd, mg)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(mg *database.Migrator) error { return printVersion(cmd, mg) })
	},
}

func printVersion(cmd *cobra.Command, mg *database.Migrator) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	if v == 0 {
		cmd.Println("schema: no migrations applied")
		return nil
	}
	cmd.Printf("schema version: %d (dirty=%t)\n", v, dirty)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
