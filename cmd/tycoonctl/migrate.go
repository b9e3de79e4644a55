package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tycoon_ledger/internal/config"
	"tycoon_ledger/internal/db"
	"tycoon_ledger/internal/migrations"
	"tycoon_ledger/internal/store"
)

var migrateOpts struct {
	backend     string
	databaseURL string
	sqlitePath  string
	apply       bool
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateOpts.backend, "backend", config.BackendPostgres, "store backend: postgres or sqlite")
	f.StringVar(&migrateOpts.databaseURL, "database-url", "", "postgres DSN (default $DATABASE_URL)")
	f.StringVar(&migrateOpts.sqlitePath, "sqlite-path", "", "sqlite file (default $SQLITE_PATH)")
	f.BoolVar(&migrateOpts.apply, "apply", false, "apply migrations instead of listing them")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "List or apply the ledger schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		switch migrateOpts.backend {
		case config.BackendPostgres:
			if !migrateOpts.apply {
				return listMigrations(cmd, migrations.Postgres)
			}
			dsn := firstNonEmpty(migrateOpts.databaseURL, os.Getenv("DATABASE_URL"))
			if dsn == "" {
				return fmt.Errorf("DATABASE_URL not set")
			}
			pool, err := db.Connect(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool)
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return err

		case config.BackendSQLite:
			if !migrateOpts.apply {
				return listMigrations(cmd, migrations.SQLite)
			}
			path := firstNonEmpty(migrateOpts.sqlitePath, os.Getenv("SQLITE_PATH"), "tycoon.db")
			// opening the backend applies the embedded schema
			b, err := store.OpenSQLite(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "schema applied to %s\n", path)
			return b.Close()

		default:
			return fmt.Errorf("unsupported backend %q", migrateOpts.backend)
		}
	},
}

func listMigrations(cmd *cobra.Command, d migrations.Dialect) error {
	files, err := migrations.Files(d)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f.Name)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
