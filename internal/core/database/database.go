package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects gorm for the configured driver. TranslateError is on so constraint
// violations surface as gorm.ErrForeignKeyViolated / gorm.ErrDuplicatedKey.
func Open(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverPostgres:
		dialector = postgres.Open(cfg.GetDSN())
	case internal.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.GetDSN()))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLog := gormlogger.Discard
	if lg != nil {
		gormLog = gormlogger.New(slog.NewLogLogger(lg.Handler(), slog.LevelWarn), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLiteDSN turns on foreign key enforcement, which SQLite leaves off per connection by
// default. An explicit _foreign_keys or _fk parameter in source is kept as given.
func SQLiteDSN(source string) string {
	if strings.Contains(source, "_foreign_keys=") || strings.Contains(source, "_fk=") {
		return source
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_foreign_keys=on"
}

// SQLX wraps the pool gorm already owns so raw readers share its connections.
func SQLX(db *gorm.DB, driver string) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	switch driver {
	case internal.DriverPostgres:
		return sqlx.NewDb(sqlDB, "pgx"), nil
	case internal.DriverSQLite:
		return sqlx.NewDb(sqlDB, "sqlite3"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
