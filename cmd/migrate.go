package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/frahmantamala/retail-backoffice/db/migrations"
	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/core/database"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files for the configured driver",
	}
	migrateStatusCmd = &cobra.Command{
		RunE:  runMigrationStatus,
		Use:   "status",
		Short: "print applied and pending migrations",
	}
	migrateRollback bool
	migrateDir      string
)

type migrationStep func(ctx context.Context, db *sql.DB, driver string, opts migrations.Options) error

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory (defaults to the embedded set)")
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigration(cmd *cobra.Command, _ []string) error {
	if migrateRollback {
		return migrate(cmd.Context(), migrations.Down)
	}
	return migrate(cmd.Context(), migrations.Up)
}

func runMigrationStatus(cmd *cobra.Command, _ []string) error {
	return migrate(cmd.Context(), migrations.Status)
}

func migrate(ctx context.Context, step migrationStep) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Observability.Logging)

	dsn := cfg.Database.GetDSN()
	if cfg.Database.Driver == internal.DriverSQLite {
		dsn = database.SQLiteDSN(dsn)
	}
	db, err := goose.OpenDBWithDriver(sqlDriverName(cfg.Database.Driver), dsn)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	return step(ctx, db, cfg.Database.Driver, migrations.Options{Dir: migrateDir})
}

// sqlDriverName maps the configured driver to its registered database/sql name.
func sqlDriverName(driver string) string {
	if driver == internal.DriverSQLite {
		return "sqlite3"
	}
	return "pgx"
}
